// Package api exposes the HTTP surface: mood analysis, sessions, daily
// check-ins, activity suggestions, analytics and the operator-only crisis
// follow-up queue.
package api

import (
	"encoding/json"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mindwell/internal/activity"
	"mindwell/internal/auth"
	"mindwell/internal/crisis"
	"mindwell/internal/ledger"
	"mindwell/internal/models"
	"mindwell/internal/notify"
	"mindwell/internal/sentiment"
	"mindwell/internal/streak"
	"mindwell/internal/wellness"
)

// Handler wires the HTTP routes to the domain services.
type Handler struct {
	scorer          sentiment.Scorer
	analyzer        *crisis.Analyzer
	responder       *crisis.Responder
	activities      *activity.Engine
	ledger          *ledger.Service
	notifier        *notify.Dispatcher
	auth            *auth.Service
	defaultLocation string

	tipMu  sync.Mutex
	tipRng *rand.Rand
}

// NewHandler constructs the handler over its collaborators.
func NewHandler(
	scorer sentiment.Scorer,
	analyzer *crisis.Analyzer,
	responder *crisis.Responder,
	activities *activity.Engine,
	ledgerSvc *ledger.Service,
	notifier *notify.Dispatcher,
	authSvc *auth.Service,
	defaultLocation string,
) *Handler {
	if defaultLocation == "" {
		defaultLocation = "international"
	}
	return &Handler{
		scorer:          scorer,
		analyzer:        analyzer,
		responder:       responder,
		activities:      activities,
		ledger:          ledgerSvc,
		notifier:        notifier,
		auth:            authSvc,
		defaultLocation: defaultLocation,
		tipRng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RegisterRoutes declares every route on the engine. The crisis follow-up
// queue and analytics export sit behind operator bearer auth.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	api := r.Group("/api")
	{
		api.POST("/analyze_text", h.analyzeText)
		api.POST("/analyze_multimodal", h.analyzeMultimodal)
		api.POST("/start_session", h.startSession)
		api.POST("/end_session", h.endSession)
		api.GET("/system_status", h.systemStatus)

		api.GET("/daily_activity", h.dailyActivity)
		api.POST("/get_activities", h.getActivities)

		api.GET("/daily_questions/:user_id", h.dailyQuestions)
		api.POST("/submit_daily_checkin", h.submitDailyCheckin)
		api.GET("/streak_info/:user_id", h.streakInfo)
		api.GET("/daily_scores/:user_id", h.dailyScores)

		api.POST("/admin/register", h.registerOperator)
		api.POST("/admin/login", h.loginOperator)
	}

	authorized := api.Group("/", h.auth.Middleware())
	{
		authorized.GET("/analytics", h.analytics)
		authorized.GET("/user_analytics/:user_id", h.userAnalytics)
		authorized.GET("/crisis_alerts", h.crisisAlerts)
		authorized.POST("/mark_crisis_resolved", h.markCrisisResolved)
		authorized.POST("/admin/export", h.exportAnalytics)
		authorized.POST("/admin/logout", h.logoutOperator)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "mindwell",
		"timestamp": time.Now().UTC(),
	})
}

type contactsPayload struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type analyzeTextRequest struct {
	Text         string `json:"text" binding:"required"`
	UserID       string `json:"user_id"`
	UserName     string `json:"user_name"`
	SessionID    string `json:"session_id"`
	UserLocation string `json:"user_location"`
	// Raw so a mistyped payload disables the feature instead of failing
	// the whole analysis request.
	EmergencyContacts json.RawMessage `json:"emergency_contacts"`
}

// parseContacts decodes the optional contacts payload best-effort. Anything
// unusable yields nil.
func parseContacts(raw json.RawMessage) *contactsPayload {
	if len(raw) == 0 {
		return nil
	}
	var parsed contactsPayload
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil
	}
	if parsed.Phone == "" && parsed.Email == "" {
		return nil
	}
	return &parsed
}

func (h *Handler) analyzeText(c *gin.Context) {
	var req analyzeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	started := time.Now()
	ctx := c.Request.Context()

	mood, err := h.scorer.Analyze(ctx, req.Text)
	if err != nil {
		h.ledger.LogMetric(ctx, "error_rate", 1, "count", map[string]interface{}{"endpoint": "analyze_text"})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}
	analysis := h.analyzer.Analyze(req.Text, mood.Score)
	crisisResp := h.responder.Respond(analysis, h.location(req.UserLocation))
	recommendation := h.activities.Recommend(mood.Score, string(analysis.CrisisLevel), 3, nil)

	resp := gin.H{
		"mood_score":             mood.Score,
		"mood_label":             mood.Label,
		"is_crisis":              analysis.IsCrisis,
		"crisis_level":           analysis.CrisisLevel,
		"crisis_response":        crisisResp,
		"cbt_tip":                h.randomTip(),
		"recommended_activities": recommendation,
		"timestamp":              time.Now().UTC(),
	}

	var notified *notify.Results
	if contacts := parseContacts(req.EmergencyContacts); crisisResp.Escalate() && contacts != nil {
		results := h.notifier.Dispatch(ctx, notify.Alert{
			UserID:      req.UserID,
			UserName:    req.UserName,
			CrisisLevel: string(analysis.CrisisLevel),
			Contacts: notify.Contacts{
				Phone: contacts.Phone,
				Email: contacts.Email,
			},
			AdditionalContext: "Crisis detected during text analysis",
		})
		notified = &results
		resp["emergency_notification"] = results
	}

	elapsed := time.Since(started).Milliseconds()
	h.logAnalysis(c, req.Text, models.InputText, "text_analysis", req.SessionID, req.UserID,
		req.UserLocation, mood.Score, mood.Label, analysis, crisisResp, notified, elapsed, resp)

	resp["processing_time_ms"] = elapsed
	c.JSON(http.StatusOK, resp)
}

// analyzeMultimodal fuses the text reading with placeholder voice and face
// channels. Uploaded media is acknowledged but not decoded; the categorical
// channels contribute a neutral low-confidence reading until real analyzers
// exist.
func (h *Handler) analyzeMultimodal(c *gin.Context) {
	text := c.PostForm("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text field is required"})
		return
	}
	started := time.Now()
	ctx := c.Request.Context()

	mood, err := h.scorer.Analyze(ctx, text)
	if err != nil {
		h.ledger.LogMetric(ctx, "error_rate", 1, "count", map[string]interface{}{"endpoint": "analyze_multimodal"})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	textInput := &sentiment.ModalityInput{
		Score:      mood.Score,
		Confidence: math.Min(0.9, math.Abs(mood.Score)+0.5),
	}
	individual := gin.H{"text": gin.H{
		"mood_score": mood.Score,
		"mood_label": mood.Label,
		"confidence": textInput.Confidence,
	}}

	var voiceInput, faceInput *sentiment.ModalityInput
	if file, err := c.FormFile("audio"); err == nil && file != nil {
		voiceInput = &sentiment.ModalityInput{Label: "neutral", Confidence: 0.5}
		individual["voice"] = gin.H{"emotion": "neutral", "confidence": 0.5, "filename": file.Filename}
	}
	if file, err := c.FormFile("image"); err == nil && file != nil {
		faceInput = &sentiment.ModalityInput{Label: "neutral", Confidence: 0.5}
		individual["face"] = gin.H{"emotion": "neutral", "confidence": 0.5, "filename": file.Filename}
	}

	fused := sentiment.Fuse(textInput, voiceInput, faceInput)
	analysis := h.analyzer.Analyze(text, fused.FinalMoodScore)
	location := c.PostForm("user_location")
	crisisResp := h.responder.Respond(analysis, h.location(location))
	recommendation := h.activities.Recommend(fused.FinalMoodScore, string(analysis.CrisisLevel), 3, nil)

	resp := gin.H{
		"fusion_result":          fused,
		"individual_results":     individual,
		"primary_modality":       "text",
		"is_crisis":              analysis.IsCrisis,
		"crisis_level":           analysis.CrisisLevel,
		"crisis_response":        crisisResp,
		"recommendation":         moodRecommendation(fused.FinalMoodScore),
		"recommended_activities": recommendation,
		"timestamp":              time.Now().UTC(),
	}

	var notified *notify.Results
	contacts := contactsPayload{Phone: c.PostForm("contact_phone"), Email: c.PostForm("contact_email")}
	if crisisResp.Escalate() && (contacts.Phone != "" || contacts.Email != "") {
		results := h.notifier.Dispatch(ctx, notify.Alert{
			UserID:            c.PostForm("user_id"),
			UserName:          c.PostForm("user_name"),
			CrisisLevel:       string(analysis.CrisisLevel),
			Contacts:          notify.Contacts{Phone: contacts.Phone, Email: contacts.Email},
			AdditionalContext: "Crisis detected during multimodal analysis",
		})
		notified = &results
		resp["emergency_notification"] = results
	}

	elapsed := time.Since(started).Milliseconds()
	h.logAnalysis(c, text, models.InputMultimodal, "multimodal", c.PostForm("session_id"),
		c.PostForm("user_id"), location, fused.FinalMoodScore, fused.MoodLabel,
		analysis, crisisResp, notified, elapsed, resp)

	resp["processing_time_ms"] = elapsed
	c.JSON(http.StatusOK, resp)
}

// logAnalysis records the interaction, its crisis event when one was detected
// and the response-time metric. Persistence failures never fail the request.
func (h *Handler) logAnalysis(
	c *gin.Context,
	text string,
	inputType models.InputType,
	responseType, sessionID, userID, location string,
	moodScore float64,
	moodLabel string,
	analysis crisis.Analysis,
	crisisResp crisis.Response,
	notified *notify.Results,
	elapsed int64,
	resp gin.H,
) {
	ctx := c.Request.Context()
	interactionID, _ := h.ledger.LogInteraction(ctx, models.Interaction{
		SessionID:        sessionID,
		UserID:           userID,
		InputText:        text,
		InputType:        inputType,
		MoodScore:        moodScore,
		MoodLabel:        moodLabel,
		IsCrisis:         analysis.IsCrisis,
		CrisisLevel:      string(analysis.CrisisLevel),
		CrisisKeywords:   analysis.FoundKeywords,
		ResponseType:     responseType,
		ProcessingTimeMs: elapsed,
		UserLocation:     location,
	})
	resp["interaction_id"] = interactionID
	if sessionID != "" {
		resp["session_id"] = sessionID
	}

	if analysis.IsCrisis {
		ev := models.CrisisEvent{
			InteractionID:    interactionID,
			UserID:           userID,
			CrisisLevel:      string(analysis.CrisisLevel),
			CrisisKeywords:   analysis.FoundKeywords,
			MoodScore:        moodScore,
			FollowUpRequired: crisisResp.FollowUpRequired,
		}
		if notified != nil {
			ev.ContactsNotified = notified.TotalSuccessful > 0
			if raw, err := json.Marshal(notified); err == nil {
				ev.NotificationResults = raw
			}
		}
		_, _ = h.ledger.LogCrisisEvent(ctx, ev)
	}

	h.ledger.LogMetric(ctx, "response_time", float64(elapsed), "ms",
		map[string]interface{}{"endpoint": responseType})
}

// moodRecommendation is the one-line coaching message for a fused score.
func moodRecommendation(score float64) string {
	switch {
	case score <= -0.7:
		return "Consider reaching out to a mental health professional. Your wellbeing is important."
	case score <= -0.3:
		return "Try some relaxation techniques or talk to someone you trust."
	case score <= 0.1:
		return "Consider engaging in activities that usually make you feel good."
	case score <= 0.5:
		return "You seem to be doing well. Keep up the positive momentum!"
	default:
		return "Great to see you're feeling positive! Share your good energy with others."
	}
}

type startSessionRequest struct {
	UserID string `json:"user_id"`
}

func (h *Handler) startSession(c *gin.Context) {
	var req startSessionRequest
	_ = c.ShouldBindJSON(&req)

	sessionID, userID := h.ledger.StartSession(c.Request.Context(), req.UserID)
	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"user_id":    userID,
		"started_at": time.Now().UTC(),
	})
}

type endSessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

func (h *Handler) endSession(c *gin.Context) {
	var req endSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.ledger.EndSession(c.Request.Context(), req.SessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not end session"})
		return
	}
	resp := gin.H{"status": "session_ended", "session_id": req.SessionID}
	if sess, err := h.ledger.GetSession(c.Request.Context(), req.SessionID); err == nil {
		resp["session"] = sess
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) analytics(c *gin.Context) {
	days := intQuery(c, "days", 7)
	if userID := c.Query("user_id"); userID != "" {
		ua, err := h.ledger.UserAnalytics(c.Request.Context(), userID, days)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "analytics unavailable"})
			return
		}
		c.JSON(http.StatusOK, ua)
		return
	}
	summary, err := h.ledger.AnalyticsSummary(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analytics unavailable"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) userAnalytics(c *gin.Context) {
	ua, err := h.ledger.UserAnalytics(c.Request.Context(), c.Param("user_id"), intQuery(c, "days", 7))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analytics unavailable"})
		return
	}
	c.JSON(http.StatusOK, ua)
}

func (h *Handler) crisisAlerts(c *gin.Context) {
	unresolvedOnly := true
	if v := c.Query("unresolved_only"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			unresolvedOnly = parsed
		}
	}
	alerts, err := h.ledger.CrisisAlerts(c.Request.Context(), unresolvedOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load crisis alerts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"crisis_alerts": alerts,
		"total_alerts":  len(alerts),
		"timestamp":     time.Now().UTC(),
	})
}

type markResolvedRequest struct {
	CrisisID         string `json:"crisis_id" binding:"required"`
	ResolutionStatus string `json:"resolution_status"`
}

func (h *Handler) markCrisisResolved(c *gin.Context) {
	var req markResolvedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	affected, err := h.ledger.MarkCrisisResolved(c.Request.Context(), req.CrisisID, req.ResolutionStatus)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update crisis event"})
		return
	}
	if affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "crisis event not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "crisis_marked_resolved", "crisis_id": req.CrisisID})
}

func (h *Handler) systemStatus(c *gin.Context) {
	ctx := c.Request.Context()
	status := "healthy"
	database := "connected"
	if err := h.ledger.Ping(ctx); err != nil {
		status = "degraded"
		database = "error"
	}

	todayStats, err := h.ledger.AnalyticsSummary(ctx, 1)
	stats := gin.H{}
	if err == nil {
		stats = gin.H{
			"interactions_today":  todayStats.TotalInteractions,
			"crisis_events_today": todayStats.TotalCrisisEvents,
			"average_mood_today":  todayStats.AverageMoodScore,
		}
	}

	sms, email := h.notifier.Channels()
	c.JSON(http.StatusOK, gin.H{
		"status":           status,
		"database":         database,
		"crisis_detection": "enabled",
		"emergency_notifications": gin.H{
			"sms":   sms,
			"email": email,
		},
		"today_stats": stats,
		"timestamp":   time.Now().UTC(),
	})
}

func (h *Handler) dailyActivity(c *gin.Context) {
	c.JSON(http.StatusOK, h.activities.DailyActivity())
}

type getActivitiesRequest struct {
	MoodScore     float64  `json:"mood_score"`
	CrisisLevel   string   `json:"crisis_level"`
	NumActivities int      `json:"num_activities"`
	Preferences   []string `json:"preferences"`
}

func (h *Handler) getActivities(c *gin.Context) {
	var req getActivitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.activities.Recommend(req.MoodScore, req.CrisisLevel, req.NumActivities, req.Preferences))
}

func (h *Handler) dailyQuestions(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().UTC().Format(streak.DateLayout)
	}
	set, err := wellness.DailyQuestions(c.Param("user_id"), date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, set)
}

type submitCheckinRequest struct {
	UserID  string            `json:"user_id" binding:"required"`
	Date    string            `json:"date"`
	Answers []wellness.Answer `json:"answers" binding:"required"`
}

func (h *Handler) submitDailyCheckin(c *gin.Context) {
	var req submitCheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	date := req.Date
	if date == "" {
		date = time.Now().UTC().Format(streak.DateLayout)
	}

	score := wellness.Score(req.Answers)

	rec := models.DailyCheckin{
		ID:               uuid.NewString(),
		UserID:           req.UserID,
		Date:             date,
		WellnessScore:    score.OverallScore,
		WellnessCategory: score.WellnessCategory,
	}
	if set, err := wellness.DailyQuestions(req.UserID, date); err == nil {
		if raw, err := json.Marshal(set.Questions); err == nil {
			rec.QuestionsData = raw
		}
	}
	if raw, err := json.Marshal(req.Answers); err == nil {
		rec.AnswersData = raw
	}
	if raw, err := json.Marshal(score.CategoryScores); err == nil {
		rec.CategoryScores = raw
	}

	state, err := h.ledger.SaveDailyCheckin(ctx, rec)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save check-in"})
		return
	}
	info, err := h.ledger.GetStreakInfo(ctx, req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load streak"})
		return
	}

	// Insights expect scores oldest first; the store returns newest first.
	scores, _ := h.ledger.DailyScores(ctx, req.UserID, 30)
	for i, j := 0, len(scores)-1; i < j; i, j = i+1, j-1 {
		scores[i], scores[j] = scores[j], scores[i]
	}
	insights := wellness.StreakInsights(info.CurrentStreak, scores)

	resp := gin.H{
		"checkin_id":         rec.ID,
		"wellness_score":     score,
		"streak_info":        info,
		"insights":           insights,
		"needs_intervention": score.WellnessCategory == "concerning" || score.WellnessCategory == "critical",
		"message":            "Daily check-in completed successfully!",
	}
	for _, milestone := range state.Milestones {
		if milestone == state.CurrentStreak {
			resp["milestone_achieved"] = gin.H{
				"days":   milestone,
				"reward": wellness.MilestoneReward(milestone),
			}
			break
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) streakInfo(c *gin.Context) {
	info, err := h.ledger.GetStreakInfo(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load streak"})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handler) dailyScores(c *gin.Context) {
	userID := c.Param("user_id")
	scores, err := h.ledger.DailyScores(c.Request.Context(), userID, intQuery(c, "days", 30))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load daily scores"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"daily_scores": scores,
		"total_days":   len(scores),
	})
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) registerOperator(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	op, err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"operator": op})
}

func (h *Handler) loginOperator(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	op, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	token, err := h.auth.IssueToken(c.Request.Context(), op.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(h.auth.TokenTTL().Seconds()),
		"operator":   op,
	})
}

func (h *Handler) logoutOperator(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token := ""
	if len(header) > 7 {
		token = header[7:]
	}
	if err := h.auth.RevokeToken(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

type exportRequest struct {
	OutputFile string `json:"output_file"`
}

func (h *Handler) exportAnalytics(c *gin.Context) {
	var req exportRequest
	_ = c.ShouldBindJSON(&req)

	path, err := h.ledger.ExportAnalytics(c.Request.Context(), req.OutputFile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "exported", "file": path})
}

func (h *Handler) location(loc string) string {
	if loc == "" {
		return h.defaultLocation
	}
	return loc
}

func (h *Handler) randomTip() string {
	h.tipMu.Lock()
	defer h.tipMu.Unlock()
	return wellness.RandomTip(h.tipRng)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	if v := c.Query(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
