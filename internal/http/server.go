package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/schedflow/schedflow/internal/log"
	"github.com/schedflow/schedflow/pkg/gcal"
	"github.com/schedflow/schedflow/pkg/models"
	"github.com/schedflow/schedflow/pkg/service"
)

// ReplyRecorder accepts inbound reply messages for a mail thread, as fed by
// an inbound-mail webhook.
type ReplyRecorder interface {
	Record(ctx context.Context, threadID string, msg gcal.Message) error
}

// StartServer exposes the scheduling entry point over plain HTTP. Session
// handling and natural-language command interpretation live upstream; this
// surface only accepts already-shaped triggers. The /replies route is
// registered only when a recorder is supplied.
func StartServer(port string, sched *service.Scheduler, replies ReplyRecorder) error {
	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/messages", messagesHandler(sched))
	if replies != nil {
		http.HandleFunc("/replies", repliesHandler(replies))
	}

	log.GetLogger().Infof("Starting schedflow server on :%s", port)
	return http.ListenAndServe(":"+port, nil)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "schedflow server is running")
}

// repliesHandler records an inbound reply on its thread; the poller picks it
// up on the next cycle.
func repliesHandler(replies ReplyRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		threadID := r.FormValue("thread_id")
		if threadID == "" {
			http.Error(w, "Missing 'thread_id' parameter", http.StatusBadRequest)
			return
		}
		message := r.FormValue("message")
		if message == "" {
			http.Error(w, "Missing 'message' parameter", http.StatusBadRequest)
			return
		}

		msg := gcal.Message{From: r.FormValue("from"), Snippet: message}
		if err := replies.Record(r.Context(), threadID, msg); err != nil {
			log.GetLogger().Errorf("Failed to record reply: %v", err)
			http.Error(w, fmt.Sprintf("Failed to record reply: %v", err), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintln(w, "recorded")
	}
}

// messagesHandler accepts either a new scheduling request (summary present)
// or a free-text reply in an ongoing conversation.
func messagesHandler(sched *service.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		conversationID := r.FormValue("conversation_id")
		if conversationID == "" {
			http.Error(w, "Missing 'conversation_id' parameter", http.StatusBadRequest)
			return
		}

		var trigger models.Trigger
		if summary := r.FormValue("summary"); summary != "" {
			req := models.EventRequest{
				Summary:      summary,
				Start:        r.FormValue("start"),
				End:          r.FormValue("end"),
				CreatorEmail: r.FormValue("creator_email"),
			}
			if attendees := r.FormValue("attendees"); attendees != "" {
				for _, a := range strings.Split(attendees, ",") {
					req.Attendees = append(req.Attendees, strings.TrimSpace(a))
				}
			}
			trigger = models.NewRequestTrigger(conversationID, req)
		} else if message := r.FormValue("message"); message != "" {
			trigger = models.UserReplyTrigger(conversationID, message)
		} else {
			http.Error(w, "Missing 'summary' or 'message' parameter", http.StatusBadRequest)
			return
		}

		reply, err := sched.Advance(r.Context(), trigger)
		if err != nil {
			log.GetLogger().Errorf("Failed to advance scheduling: %v", err)
			http.Error(w, fmt.Sprintf("Failed to advance scheduling: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, reply)
	}
}
