// Package magicprompt is the action surface: it maps an action tag and user
// input to a backend call using the current settings snapshot.
package magicprompt

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/magicprompt/pkg/config"
	"github.com/papercomputeco/magicprompt/pkg/dispatch"
	"github.com/papercomputeco/magicprompt/pkg/llm"
	"github.com/papercomputeco/magicprompt/pkg/translate"
)

// Dispatcher sends one translated request. *dispatch.Dispatcher implements it.
type Dispatcher interface {
	Send(ctx context.Context, endpoints dispatch.Endpoints, backendID string, content *llm.MessageContent, model string, kind llm.MessageKind, seed int) llm.NormalizedResult
}

// Request is one user action.
type Request struct {
	Action string
	Input  string

	// Image is an http(s) URL, a data URL or bare base64. Empty means none.
	Image string

	// History holds earlier chat turns, oldest first.
	History []llm.Turn

	// Seed overrides the action's configured seed when set.
	Seed *int
}

// Plan is a request resolved against a settings snapshot.
type Plan struct {
	Action  string
	Backend string
	Model   string
	Kind    llm.MessageKind
	Seed    int
	Content *llm.MessageContent
}

// Service runs actions. It reads settings through a func so callers can swap
// the snapshot between requests.
type Service struct {
	dispatcher Dispatcher
	settings   func() *config.Config
	logger     *zap.Logger
}

// NewService creates a Service.
func NewService(dispatcher Dispatcher, settings func() *config.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		dispatcher: dispatcher,
		settings:   settings,
		logger:     logger,
	}
}

// Run resolves req against the current settings and dispatches it. Every
// failure is reported in the result.
func (s *Service) Run(ctx context.Context, req Request) llm.NormalizedResult {
	_, res := s.Execute(ctx, s.settings(), req)
	return res
}

// Execute is Run against an explicit snapshot. The plan is zero when the
// request was rejected before dispatch.
func (s *Service) Execute(ctx context.Context, cfg *config.Config, req Request) (Plan, llm.NormalizedResult) {
	plan, err := s.Plan(cfg, req)
	if err != nil {
		s.logger.Warn("action rejected",
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return Plan{}, llm.Fail(err)
	}

	s.logger.Debug("running action",
		zap.String("action", plan.Action),
		zap.String("backend", plan.Backend),
		zap.String("model", plan.Model),
		zap.Stringer("kind", plan.Kind),
	)

	return plan, s.dispatcher.Send(ctx, cfg, plan.Backend, plan.Content, plan.Model, plan.Kind, plan.Seed)
}

// Plan resolves req against cfg without sending anything.
func (s *Service) Plan(cfg *config.Config, req Request) (Plan, error) {
	tag := strings.ToLower(strings.TrimSpace(req.Action))
	if !IsAction(tag) {
		return Plan{}, fmt.Errorf("%w: unknown action %q", llm.ErrInvalidArgument, req.Action)
	}
	if cfg == nil {
		return Plan{}, fmt.Errorf("%w: no settings loaded", llm.ErrConfiguration)
	}

	action, ok := cfg.Action(tag)
	if !ok || action.Backend == "" || action.Model == "" {
		return Plan{}, fmt.Errorf("%w: action %q has no backend and model configured", llm.ErrInvalidArgument, tag)
	}

	content := &llm.MessageContent{
		Text:         req.Input,
		Instructions: llm.String(instructionsFor(tag, action)),
		KeepAlive:    action.KeepAlive,
	}
	if tag == ActionChat {
		content.History = req.History
	}

	kind := llm.KindText
	if req.Image != "" {
		item, err := parseImage(req.Image)
		if err != nil {
			return Plan{}, err
		}
		content.Media = []llm.MediaItem{item}
		if tag == ActionChat || visionAction(tag) {
			kind = llm.KindVision
		}
	}
	if visionAction(tag) {
		if kind != llm.KindVision {
			return Plan{}, fmt.Errorf("%w: action %q requires an image", llm.ErrInvalidArgument, tag)
		}
		if strings.TrimSpace(content.Text) == "" {
			content.Text = defaultCaptionText
		}
	}
	if kind == llm.KindText {
		content.Media = nil
	}

	seed := translate.NoSeed
	if action.Seed != nil {
		seed = *action.Seed
	}
	if req.Seed != nil {
		seed = *req.Seed
	}

	return Plan{
		Action:  tag,
		Backend: action.Backend,
		Model:   action.Model,
		Kind:    kind,
		Seed:    seed,
		Content: content,
	}, nil
}

func instructionsFor(tag string, action config.Action) string {
	if action.Instructions != "" {
		return action.Instructions
	}
	return defaultInstructions[tag]
}
