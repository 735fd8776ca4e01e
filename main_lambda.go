//go:build lambda

package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

type optimizeRequest struct {
	Route        json.RawMessage `json:"route"`
	Seed         int             `json:"seed"`
	Algorithms   []string        `json:"algorithms"`
	StartIndex   int             `json:"startIndex"`
	MaximumSteps *int            `json:"maximumSteps"`
	Decisions    []int           `json:"decisions"`
}

type optimizeResult struct {
	RunID      string  `json:"runId"`
	Seed       int     `json:"seed"`
	Frames     float64 `json:"frames"`
	Seconds    float64 `json:"seconds"`
	Encounters int     `json:"encounters"`
	Decisions  []int   `json:"decisions"`
	TimeMs     int64   `json:"timeMs"`
	Report     string  `json:"report"`
}

func handler(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errResp(400, "invalid base64 body")
		}
		body = string(decoded)
	}

	var req optimizeRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return errResp(400, "invalid JSON: "+err.Error())
	}
	if !gjson.GetBytes(req.Route, "route").IsArray() {
		return errResp(400, "missing route field")
	}

	route, err := ParseRoute(string(req.Route))
	if err != nil {
		return errResp(400, "invalid route: "+err.Error())
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return errResp(500, err.Error())
	}
	cfg.Route = "request"
	cfg.SeedFrom, cfg.SeedTo = req.Seed, req.Seed
	cfg.StartIndex = req.StartIndex
	if len(req.Algorithms) > 0 {
		cfg.Algorithms = req.Algorithms
	}
	if req.MaximumSteps != nil {
		cfg.MaximumSteps = *req.MaximumSteps
	}
	if err := cfg.Validate(); err != nil {
		return errResp(400, err.Error())
	}

	start := time.Now()
	w := &memoryRouteWriter{}
	s, engine, _, err := newSession(route, &cfg, req.Seed, w)
	if err != nil {
		return errResp(422, err.Error())
	}
	s.Randomizer.Restore(req.Decisions)

	if err := s.Evaluate(); err != nil {
		return errResp(422, err.Error())
	}
	if err := s.Run(ctx, cfg.Algorithms, cfg.StartIndex); err != nil {
		return errResp(422, fmt.Sprintf("seed %d: %v", req.Seed, err))
	}

	resp := optimizeResult{
		RunID:      uuid.NewString(),
		Seed:       req.Seed,
		Frames:     engine.Frames(),
		Seconds:    FramesToSeconds(engine.Frames()),
		Encounters: engine.EncounterCount(),
		Decisions:  s.Randomizer.Snapshot(),
		TimeMs:     time.Since(start).Milliseconds(),
		Report:     w.report,
	}
	respJSON, _ := json.Marshal(resp)
	return events.LambdaFunctionURLResponse{StatusCode: 200, Headers: jsonHeader, Body: string(respJSON)}, nil
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}

func main() {
	lambda.Start(handler)
}
