package server

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/magicprompt/pkg/llm"
	"github.com/papercomputeco/magicprompt/pkg/magicprompt"
	"github.com/papercomputeco/magicprompt/pkg/merkle"
)

// ActionRequest is the body of POST /api/magicprompt/:action.
type ActionRequest struct {
	Input string `json:"input"`
	Image string `json:"image,omitempty"`

	// Parent is the transcript head a chat continues from.
	Parent string `json:"parent,omitempty"`

	Seed *int `json:"seed,omitempty"`
}

// ActionResponse is the normalized result plus, for chat, the new transcript head.
type ActionResponse struct {
	llm.NormalizedResult
	Head string `json:"head,omitempty"`
}

// ModelsResponse lists the models a backend serves.
type ModelsResponse struct {
	Backend string   `json:"backend"`
	Models  []string `json:"models"`
}

// HistoryResponse is a transcript in chronological order.
type HistoryResponse struct {
	Head  string     `json:"head"`
	Turns []llm.Turn `json:"turns"`
}

// HistorySummary is a brief view of one transcript head.
type HistorySummary struct {
	Head    string `json:"head"`
	Role    string `json:"role"`
	Preview string `json:"preview"`
}

// ImportResponse counts the outcome of POST /api/history.
type ImportResponse struct {
	New       int `json:"new"`
	Duplicate int `json:"duplicate"`
	Errors    int `json:"errors"`
}

// handleAction runs one action. Failures are reported in the result body with
// a 200 status; only malformed requests and unknown parents get error codes.
func (s *Server) handleAction(c *fiber.Ctx) error {
	startTime := time.Now()
	log := s.log(c)

	var req ActionRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		log.Error("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	ctx := c.UserContext()
	action := strings.ToLower(c.Params("action"))
	chat := action == magicprompt.ActionChat

	var history []llm.Turn
	if chat {
		var err error
		history, err = merkle.History(ctx, s.storer, req.Parent)
		if err != nil {
			return s.storeError(c, err)
		}
	}

	plan, res := s.service.Execute(ctx, s.Settings(), magicprompt.Request{
		Action:  action,
		Input:   req.Input,
		Image:   req.Image,
		History: history,
		Seed:    req.Seed,
	})

	resp := ActionResponse{NormalizedResult: res}
	label := action
	if !magicprompt.IsAction(label) {
		label = "unknown"
	}
	if res.Success {
		actionStats.Add(label+".success", 1)
	} else {
		actionStats.Add(label+".failure", 1)
	}
	if chat && res.Success {
		head, err := merkle.Append(ctx, s.storer, req.Parent,
			llm.Turn{Role: llm.RoleUser, Text: req.Input},
			llm.Turn{Role: llm.RoleAssistant, Text: res.Text(), Model: plan.Model},
		)
		if err != nil {
			log.Error("failed to store transcript", zap.Error(err))
		} else {
			resp.Head = head.Hash
		}
	}

	log.Debug("action handled",
		zap.String("action", action),
		zap.Bool("success", res.Success),
		zap.String("head", resp.Head),
		zap.Duration("duration", time.Since(startTime)),
	)

	return c.JSON(resp)
}

func (s *Server) handleModels(c *fiber.Ctx) error {
	backend := c.Params("backend")

	names, err := s.lister.List(c.UserContext(), s.Settings(), backend)
	if err != nil {
		s.log(c).Warn("failed to list models", zap.String("backend", backend), zap.Error(err))
		return c.Status(statusFor(err)).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(ModelsResponse{Backend: backend, Models: names})
}

// handleListHistories returns every transcript head.
func (s *Server) handleListHistories(c *fiber.Ctx) error {
	leaves, err := s.storer.Leaves(c.UserContext())
	if err != nil {
		s.log(c).Error("failed to get leaves", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get leaves"})
	}

	heads := make([]HistorySummary, 0, len(leaves))
	for _, leaf := range leaves {
		heads = append(heads, HistorySummary{
			Head:    leaf.Hash,
			Role:    leaf.Content.Role,
			Preview: truncate(leaf.Content.Text, 100),
		})
	}

	return c.JSON(map[string]any{
		"histories": heads,
		"count":     len(heads),
	})
}

func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	hash := c.Params("hash")

	turns, err := merkle.History(c.UserContext(), s.storer, hash)
	if err != nil {
		return s.storeError(c, err)
	}

	return c.JSON(HistoryResponse{Head: hash, Turns: turns})
}

// handleImportNodes stores pushed transcript nodes. Nodes whose hash does not
// match their content are counted as errors and skipped.
func (s *Server) handleImportNodes(c *fiber.Ctx) error {
	log := s.log(c)

	var nodes []*merkle.Node
	if err := json.Unmarshal(c.Body(), &nodes); err != nil {
		log.Error("failed to parse nodes", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	ctx := c.UserContext()
	var resp ImportResponse
	for _, node := range nodes {
		if node == nil || !node.Verify() {
			resp.Errors++
			continue
		}

		exists, err := s.storer.Has(ctx, node.Hash)
		if err != nil {
			log.Error("failed to check node", zap.String("hash", node.Hash), zap.Error(err))
			resp.Errors++
			continue
		}
		if exists {
			resp.Duplicate++
			continue
		}

		if err := s.storer.Put(ctx, node); err != nil {
			log.Error("failed to store node", zap.String("hash", node.Hash), zap.Error(err))
			resp.Errors++
			continue
		}
		resp.New++
	}

	log.Info("imported nodes",
		zap.Int("new", resp.New),
		zap.Int("duplicate", resp.Duplicate),
		zap.Int("errors", resp.Errors),
	)
	return c.JSON(resp)
}

func (s *Server) storeError(c *fiber.Ctx, err error) error {
	var notFound merkle.ErrNotFound
	if errors.As(err, &notFound) {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "node not found"})
	}
	s.log(c).Error("transcript lookup failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "transcript lookup failed"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, llm.ErrUnsupportedBackend):
		return fiber.StatusNotFound
	case errors.Is(err, llm.ErrConfiguration):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, llm.ErrTransport), errors.Is(err, llm.ErrMalformedResponse):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// truncate shortens s to at most maxLen bytes for previews without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}
