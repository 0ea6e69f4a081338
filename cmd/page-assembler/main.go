package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/pagecomposer/internal/models"
	"github.com/Lllllllleong/pagecomposer/internal/services"
)

var (
	assemblerInstance *services.AssemblerFunction
	once              sync.Once
	initErr           error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandleAssemble" is the entry point name configured in GCP.
	functions.HTTP("HandleAssemble", handleAssemble)
}

// main is required by the Go Functions Framework.
func main() {}

// handleAssemble is the HTTP handler for the page assembly service.
func handleAssemble(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		assemblerInstance, initErr = services.NewAssembler(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: Assembler initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.AssembleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := assemblerInstance.Process(r.Context(), &req)
	if err != nil {
		// The specific error is already logged inside the Process method.
		switch {
		case errors.Is(err, services.ErrInvalidRequest), errors.Is(err, services.ErrInvalidEdit):
			http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrNoPages):
			http.Error(w, "Unprocessable Entity: no pages to merge", http.StatusUnprocessableEntity)
		default:
			http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error(
			"Failed to write response",
			"error", err,
			"assemblyId", res.AssemblyID,
			"executionId", req.ExecutionID,
		)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
