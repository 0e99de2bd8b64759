package main

import (
	"encoding/json"
	"fmt"

	"github.com/ochairo/fetchrun/internal/domain/entities"
)

// Response is the result record printed on stdout
type Response struct {
	Msg          string `json:"msg"`
	InvocationID string `json:"invocation_id,omitempty"`
	Alerts       string `json:"alerts"`
	Stderr       string `json:"stderr"`
	ExitCode     int    `json:"exit_code"`
	Changed      bool   `json:"changed"`
	Failed       bool   `json:"failed"`
}

// responseFromResult builds the record for a completed run
func responseFromResult(r *entities.InvocationResult) Response {
	msg := "artifact executed"
	if !r.Succeeded() {
		msg = fmt.Sprintf("artifact exited with status %d", r.ExitCode)
	}
	return Response{
		Msg:          msg,
		InvocationID: r.InvocationID,
		Alerts:       r.Alerts,
		Stderr:       r.Stderr,
		ExitCode:     r.ExitCode,
		Changed:      r.Changed,
	}
}

// respond writes resp as JSON
func (a *app) respond(resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(Response{Msg: "invalid response object", Failed: true}) //nolint:errchkjson // fixed value
		resp.Failed = true
	}

	if _, werr := fmt.Fprintln(a.stdout, string(data)); werr != nil {
		return fmt.Errorf("failed to write response: %w", werr)
	}
	if resp.Failed {
		return errReported
	}
	return nil
}

// fail writes a failure record for err
func (a *app) fail(err error) error {
	return a.respond(Response{Msg: err.Error(), Failed: true})
}
