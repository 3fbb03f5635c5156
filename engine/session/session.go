// package session ties the render manager, the scene and the orientation filter into one AR session with a video
// stream beneath the overlay.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ar/engine/scene"
	"github.com/Carmen-Shannon/oxy-ar/engine/sensor"
	"github.com/google/uuid"
)

// ErrNotInitialized is returned by operations that need Initialize to have succeeded.
var ErrNotInitialized = errors.New("session: not initialized")

// VideoSource supplies the camera video drawn beneath the overlay.
type VideoSource interface {
	// Start begins streaming. ctx bounds the start-up only.
	Start(ctx context.Context) error
	// Stop ends streaming. Stopping a stopped source is not an error.
	Stop() error
}

// Session is one AR session. Initialize, Render, Resize and Deinitialize run on the render thread; the video stream
// may be started and stopped from any goroutine.
type Session interface {
	// ID returns the identity of the session, used to tag its log records.
	//
	// Returns:
	//   - uuid.UUID: the session id
	ID() uuid.UUID

	// Initialize creates the device for a surface and sets up the scene on it.
	//
	// Parameters:
	//   - width: the surface width in pixels
	//   - height: the surface height in pixels
	//   - target: the platform surface handle passed to the device factory
	//
	// Returns:
	//   - error: error wrapping renderer.ErrSetup, or the scene setup error
	Initialize(width, height uint32, target any) error

	// BeginVideoStream starts the video source, activates rendering and arms the orientation reset so the first
	// sensor sample after the stream starts is accepted.
	//
	// Parameters:
	//   - ctx: bounds the start of the video source
	//
	// Returns:
	//   - error: error if the video source failed to start, the session stays inactive then
	BeginVideoStream(ctx context.Context) error

	// StopVideoStream stops the video source and deactivates rendering. GPU resources are kept.
	//
	// Returns:
	//   - error: the error of the video source, rendering is deactivated regardless
	StopVideoStream() error

	// Render draws one frame. It does nothing while the session is inactive or uninitialized. When the render
	// manager released its device after a failed present, one re-initialization is attempted per call.
	//
	// Returns:
	//   - error: error if re-initialization or presenting failed
	Render() error

	// Resize re-creates the device for a new surface size. Registered assets are restored onto it.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: ErrNotInitialized, or error wrapping renderer.ErrSetup
	Resize(width, height uint32) error

	// Deinitialize stops the video, releases the scene and every GPU resource and marks the session uninitialized.
	// Initialize may be called again afterwards.
	Deinitialize()

	// Active reports whether the video stream is running.
	Active() bool

	// Initialized reports whether Initialize succeeded and Deinitialize was not called since.
	Initialized() bool

	// Renderer returns the render manager of the session.
	Renderer() renderer.Renderer

	// Scene returns the scene of the session.
	Scene() scene.Scene

	// Filter returns the orientation filter driving the camera, nil when none was configured.
	Filter() sensor.OrientationFilter
}

// session is the implementation of the Session interface.
type session struct {
	mu *sync.Mutex

	id     uuid.UUID
	logger *slog.Logger

	r      renderer.Renderer
	sc     scene.Scene
	filter sensor.OrientationFilter
	video  VideoSource

	rendererOptions []renderer.RendererBuilderOption
	sceneOptions    []scene.SceneBuilderOption

	width, height uint32
	target        any
	initialized   bool
	active        bool
}

var _ Session = &session{}

// NewSession creates an uninitialized session. The scene's camera follows the orientation filter when one is given.
//
// Parameters:
//   - options: functional options to configure the session
//
// Returns:
//   - Session: the newly created session
func NewSession(options ...SessionBuilderOption) Session {
	s := &session{
		mu: &sync.Mutex{},
		id: uuid.New(),
	}
	for _, option := range options {
		option(s)
	}
	s.logger = common.LoggerOr(s.logger).With("session", s.id.String())

	rendererOptions := append([]renderer.RendererBuilderOption{renderer.WithLogger(s.logger)}, s.rendererOptions...)
	s.r = renderer.NewRenderer(rendererOptions...)

	sceneOptions := []scene.SceneBuilderOption{scene.WithLogger(s.logger)}
	if s.filter != nil {
		sceneOptions = append(sceneOptions, scene.WithOrientation(s.filter))
	}
	s.sc = scene.NewScene(s.r, append(sceneOptions, s.sceneOptions...)...)
	return s
}

func (s *session) ID() uuid.UUID {
	return s.id
}

func (s *session) Initialize(width, height uint32, target any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.width, s.height, s.target = width, height, target
	s.initialized = false
	if err := s.setup(); err != nil {
		return err
	}
	s.initialized = true
	s.logger.Info("session initialized", "width", width, "height", height)
	return nil
}

// setup creates the device and sets up the scene on it.
func (s *session) setup() error {
	if err := s.r.Init(s.width, s.height, s.target); err != nil {
		return fmt.Errorf("initialize session: %w", err)
	}
	if err := s.sc.Setup(); err != nil {
		s.r.Reset()
		return fmt.Errorf("initialize session: %w", err)
	}
	return nil
}

func (s *session) BeginVideoStream(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.video != nil {
		if err := s.video.Start(ctx); err != nil {
			return fmt.Errorf("begin video stream: %w", err)
		}
	}
	s.active = true
	if s.filter != nil {
		s.filter.SetReset(true)
	}
	s.logger.Info("video stream started")
	return nil
}

func (s *session) StopVideoStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopVideo()
}

func (s *session) stopVideo() error {
	wasActive := s.active
	s.active = false
	if s.filter != nil {
		s.filter.SetReset(true)
	}
	if s.video == nil || !wasActive {
		return nil
	}
	if err := s.video.Stop(); err != nil {
		return fmt.Errorf("stop video stream: %w", err)
	}
	s.logger.Info("video stream stopped")
	return nil
}

func (s *session) Render() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || !s.initialized {
		return nil
	}
	if !s.r.Ready() || !s.sc.Ready() {
		s.logger.Warn("render manager lost its resources, re-initializing")
		if err := s.setup(); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}

	s.sc.Update()
	if !s.r.BeginFrame() {
		return nil
	}
	if err := s.sc.Draw(); err != nil {
		s.logger.Debug("scene draw failed", "error", err)
	}
	if err := s.r.EndFrame(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

func (s *session) Resize(width, height uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.width, s.height = width, height
	if err := s.r.Resize(width, height); err != nil {
		return fmt.Errorf("resize session: %w", err)
	}
	s.logger.Info("session resized", "width", width, "height", height)
	return nil
}

func (s *session) Deinitialize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.stopVideo(); err != nil {
		s.logger.Warn("failed to stop video stream", "error", err)
	}
	s.sc.Release()
	s.r.Release()
	s.initialized = false
	s.logger.Info("session deinitialized")
}

func (s *session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *session) Renderer() renderer.Renderer {
	return s.r
}

func (s *session) Scene() scene.Scene {
	return s.sc
}

func (s *session) Filter() sensor.OrientationFilter {
	return s.filter
}
