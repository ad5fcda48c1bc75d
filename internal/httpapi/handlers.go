package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"campaign-engine/internal/campaign"
	"campaign-engine/internal/config"
	"campaign-engine/internal/conversation"
	"campaign-engine/internal/lead"
	"campaign-engine/internal/messaging"
	"campaign-engine/internal/telephony"
	"campaign-engine/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal modules, return JSON.
type Handlers struct {
	Cfg        config.Config
	State      *campaign.State
	Dispatcher *campaign.Dispatcher
	Engine     *campaign.Engine
	Reconciler *campaign.Reconciler
	Broadcast  *campaign.Broadcaster
	Ledger     *conversation.Ledger
}

// --- Jobs ---

type createJobRequest struct {
	Rows            []map[string]string `json:"rows"`
	Mapping         lead.Mapping        `json:"mapping"`
	Limit           int                 `json:"limit"`
	Mode            string              `json:"mode"`
	ValidateNumbers bool                `json:"validate_numbers"`
	Template        string              `json:"template"`
}

type createJobResponse struct {
	JobID string        `json:"job_id"`
	Total int           `json:"total"`
	Mode  campaign.Mode `json:"mode"`
}

func (h *Handlers) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	mode := campaign.Mode(req.Mode)
	switch mode {
	case campaign.ModeCall:
		if !h.Cfg.CallReady() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "call provider credentials not configured (VAPI_API_KEY, VAPI_ASSISTANT_ID, VAPI_PHONE_NUMBER_ID)"})
			return
		}
	case campaign.ModeSMS:
		if !h.Cfg.SMSReady() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sms provider credentials not configured (TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_FROM_NUMBER)"})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be \"call\" or \"sms\""})
		return
	}

	if req.Mapping.Phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mapping.phone is required"})
		return
	}

	leads := lead.FromRows(req.Rows, req.Mapping, req.Limit)
	if len(leads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no rows with a usable phone number"})
		return
	}

	job := h.State.CreateJob(leads, mode)

	opts := campaign.DispatchOptions{ValidateNumbers: req.ValidateNumbers, Template: req.Template}
	// The dispatch loop outlives this request; shutdown is its cancel signal.
	go h.Dispatcher.Run(logger.With(context.Background(), logger.FromGin(c)), job.ID, opts)

	c.JSON(http.StatusCreated, createJobResponse{JobID: job.ID, Total: job.Total, Mode: job.Mode})
}

func (h *Handlers) GetJob(c *gin.Context) {
	job, ok := h.State.Job(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// DeleteJob is the cancellation primitive: the dispatch loop halts before its
// next lead and pending webhook resolvers/retry timers no-op.
func (h *Handlers) DeleteJob(c *gin.Context) {
	id := c.Param("id")
	if !h.State.DeleteJob(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	h.Broadcast.Forget(id)
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 15 * time.Second

func (h *Handlers) StreamJob(c *gin.Context) {
	job, ok := h.State.Job(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	events, cancel := h.Broadcast.Subscribe(job)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := c.Writer.WriteString(": ping\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		case ev, open := <-events:
			if !open {
				return
			}
			if err := writeSSE(c, ev); err != nil {
				return
			}
			if ev.Type == campaign.EventComplete {
				return
			}
		}
	}
}

func writeSSE(c *gin.Context, ev campaign.Event) error {
	if _, err := c.Writer.WriteString("data: "); err != nil {
		return err
	}
	enc, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := c.Writer.Write(enc); err != nil {
		return err
	}
	if _, err := c.Writer.WriteString("\n\n"); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

func (h *Handlers) Results(c *gin.Context) {
	rows, err := h.Reconciler.Reconcile(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": rows})
}

func (h *Handlers) ResultsCSV(c *gin.Context) {
	rows, err := h.Reconciler.Reconcile(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="results.csv"`)
	c.Status(http.StatusOK)
	if err := campaign.WriteResultsCSV(c.Writer, rows); err != nil {
		logger.FromGin(c).Warn("csv write aborted", "err", err)
	}
}

type conversationRow struct {
	campaign.LeadResult
	Thread []conversation.Message `json:"thread"`
}

func (h *Handlers) Conversations(c *gin.Context) {
	job, ok := h.State.Job(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	rows := make([]conversationRow, len(job.Results))
	for i, r := range job.Results {
		rows[i] = conversationRow{LeadResult: r, Thread: h.Ledger.History(r.Phone)}
	}
	c.JSON(http.StatusOK, gin.H{"conversations": rows})
}

// --- Webhooks ---

// CallEnded acknowledges the provider immediately; only end-of-call reports
// trigger processing, and that processing is asynchronous.
func (h *Handlers) CallEnded(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	c.JSON(http.StatusOK, gin.H{"received": true})
	if err != nil {
		return
	}

	report, ok := telephony.ParseEndOfCallReport(body)
	if !ok {
		return
	}
	log := logger.FromGin(c)
	go h.Engine.HandleCallEnded(logger.With(context.Background(), log), campaign.CallEndedEvent{
		CallID:      report.CallID,
		EndedReason: report.EndedReason,
		Summary:     report.Summary,
		StartedAt:   report.StartedAt,
		EndedAt:     report.EndedAt,
	})
}

// SMSReply acknowledges with an empty TwiML document immediately and
// processes the reply asynchronously.
func (h *Handlers) SMSReply(c *gin.Context) {
	sms, err := messaging.ParseInboundSMS(c.Request)
	c.Data(http.StatusOK, "text/xml", messaging.EmptyTwiML())
	if err != nil || sms.From == "" {
		return
	}
	log := logger.FromGin(c)
	go h.Engine.HandleSMSReply(logger.With(context.Background(), log), campaign.ReplyEvent{
		From: sms.From,
		Body: sms.Body,
	})
}

// --- Leads ---

type extractRequest struct {
	Text string `json:"text"`
}

// ExtractPhones scans already-extracted document text for phone candidates.
func (h *Handlers) ExtractPhones(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"phones": lead.ExtractPhoneCandidates(req.Text)})
}
