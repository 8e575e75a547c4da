package handlers

import (
	"errors"
	"net/http"

	"briefcaster/pkg/tasks"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
)

// TriggerDailyBatch queues a daily run outside the schedule.
func (h *Handlers) TriggerDailyBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	task, err := tasks.NewDailyBatchTask(userID.String())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.enqueue(w, r, task)
}

// TriggerUserGeneration queues one pipeline run for the user in the route.
func (h *Handlers) TriggerUserGeneration(w http.ResponseWriter, r *http.Request) {
	target, err := uuid.Parse(mux.Vars(r)["userID"])
	if err != nil {
		badRequest(w, "Invalid user ID")
		return
	}
	task, err := tasks.NewGenerateForUserTask(target)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.enqueue(w, r, task)
}

func (h *Handlers) enqueue(w http.ResponseWriter, r *http.Request, task *asynq.Task) {
	info, err := h.asynqClient.Enqueue(task)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "busy", Detail: "Task is already queued"})
		return
	}
	if err != nil {
		h.logger.Error("failed to enqueue task", "task", task.Type(), "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "internal", Detail: "Failed to queue task"})
		return
	}
	h.logger.Info("task enqueued", "task", task.Type(), "task_id", info.ID)
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": info.ID, "queue": info.Queue})
}
