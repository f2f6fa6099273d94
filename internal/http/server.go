package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/luaraperilli/classroom-feedback-analyzer/analytics"
	"github.com/luaraperilli/classroom-feedback-analyzer/internal/auth"
	"github.com/luaraperilli/classroom-feedback-analyzer/internal/config"
	"github.com/luaraperilli/classroom-feedback-analyzer/internal/crypto"
	"github.com/luaraperilli/classroom-feedback-analyzer/internal/model"
	"github.com/luaraperilli/classroom-feedback-analyzer/internal/repository"
	"github.com/luaraperilli/classroom-feedback-analyzer/internal/sentiment"
)

type Server struct {
	cfg      config.Config
	store    *repository.Store
	analyzer sentiment.Analyzer
	redis    *redis.Client
}

func NewServer(cfg config.Config, store *repository.Store, analyzer sentiment.Analyzer, redisClient *redis.Client) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		analyzer: analyzer,
		redis:    redisClient,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	r.Post("/refresh", s.handleRefresh)
	r.Post("/logout", s.handleLogout)

	r.With(s.authMiddleware).Post("/analyze", s.handleAnalyze)
	r.With(s.authMiddleware).Get("/subjects", s.handleListSubjects)
	r.With(s.authMiddleware, s.requireStaff).Get("/feedbacks", s.handleListFeedbacks)
	r.With(s.authMiddleware, s.requireStaff).Get("/students-at-risk", s.handleStudentsAtRisk)

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.authMiddleware, s.requireCoordinator)
		r.Get("/professors", s.handleListProfessors)
		r.Post("/subjects", s.handleCreateSubject)
		r.Post("/subjects/{subjectID}/assign", s.handleAssignSubject)
	})

	return r
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type userSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	req.Role = strings.TrimSpace(strings.ToLower(req.Role))
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleStudent
	}
	if !model.ValidRole(req.Role) {
		writeError(w, http.StatusBadRequest, "invalid_role")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "password_hash_failed")
		return
	}

	user := model.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.Role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			writeError(w, http.StatusConflict, "username_taken")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusCreated, userSummary{ID: user.ID, Username: user.Username, Role: user.Role})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         userSummary `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if err := crypto.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	accessToken, refreshToken, err := s.issueTokens(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         userSummary{ID: user.ID, Username: user.Username, Role: user.Role},
	})
}

// handleRefresh exchanges a live refresh token, sent as a bearer credential,
// for a fresh access token. The refresh token itself is not rotated; it stays
// valid until its own expiry or an explicit revoke.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing_refresh_token")
		return
	}

	session, err := s.store.GetRefreshSession(r.Context(), crypto.HashToken(token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "invalid_refresh_token")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if session.RevokedAt != nil || session.ExpiresAt.Before(time.Now().UTC()) {
		writeError(w, http.StatusUnauthorized, "refresh_token_expired")
		return
	}

	user, err := s.store.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "user_not_found")
		return
	}

	accessToken, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, user.ID, user.Username, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access_token": accessToken})
}

// handleLogout revokes the presented refresh session. Only that session dies;
// the same user's other devices keep theirs. Unknown or already-revoked
// tokens still answer ok so logout stays idempotent.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing_refresh_token")
		return
	}

	session, err := s.store.GetRefreshSession(r.Context(), crypto.HashToken(token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if session.RevokedAt == nil {
		if err := s.store.RevokeRefreshSession(r.Context(), session.ID, time.Now().UTC()); err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeRequest struct {
	SubjectID         string         `json:"subject_id"`
	Text              string         `json:"text"`
	Ratings           map[string]int `json:"ratings"`
	AdditionalComment string         `json:"additional_comment"`
}

type analyzeResponse struct {
	Compound     *float64 `json:"compound,omitempty"`
	Neg          *float64 `json:"neg,omitempty"`
	Neu          *float64 `json:"neu,omitempty"`
	Pos          *float64 `json:"pos,omitempty"`
	OverallScore *float64 `json:"overall_score,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.SubjectID == "" {
		writeError(w, http.StatusBadRequest, "missing_subject")
		return
	}
	if req.Text == "" && len(req.Ratings) == 0 {
		writeError(w, http.StatusBadRequest, "missing_content")
		return
	}
	if !validRatings(req.Ratings) {
		writeError(w, http.StatusBadRequest, "invalid_rating")
		return
	}

	if _, err := s.store.GetSubject(r.Context(), req.SubjectID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "subject_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	feedback := model.Feedback{
		ID:           uuid.NewString(),
		StudentID:    claims.Subject,
		SubjectID:    req.SubjectID,
		Text:         req.Text,
		Ratings:      req.Ratings,
		OverallScore: overallFromRatings(req.Ratings),
		CreatedAt:    time.Now().UTC(),
	}
	if comment := strings.TrimSpace(req.AdditionalComment); comment != "" {
		feedback.AdditionalComment = &comment
	}

	if req.Text != "" {
		scores, err := s.analyzer.Analyze(r.Context(), req.Text)
		if err != nil {
			writeError(w, http.StatusBadGateway, "sentiment_unavailable")
			return
		}
		feedback.Compound = &scores.Compound
		feedback.Neg = &scores.Neg
		feedback.Neu = &scores.Neu
		feedback.Pos = &scores.Pos
	}

	if err := s.store.CreateFeedback(r.Context(), feedback); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	s.invalidateRiskCache(r.Context(), feedback.SubjectID)

	writeJSON(w, http.StatusCreated, analyzeResponse{
		Compound:     feedback.Compound,
		Neg:          feedback.Neg,
		Neu:          feedback.Neu,
		Pos:          feedback.Pos,
		OverallScore: feedback.OverallScore,
	})
}

func (s *Server) handleListFeedbacks(w http.ResponseWriter, r *http.Request) {
	filter := repository.FeedbackFilter{SubjectID: r.URL.Query().Get("subject_id")}

	start, err := parseDateParam(r.URL.Query().Get("start_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_start_date")
		return
	}
	end, err := parseDateParam(r.URL.Query().Get("end_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_end_date")
		return
	}
	filter.Start = start
	filter.End = end

	feedbacks, err := s.store.ListFeedbacks(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	records := make([]analytics.FeedbackRecord, 0, len(feedbacks))
	for _, f := range feedbacks {
		records = append(records, analytics.FeedbackRecord{
			ID:                f.ID,
			StudentID:         f.StudentID,
			StudentUsername:   f.StudentUsername,
			SubjectID:         f.SubjectID,
			SubjectName:       f.SubjectName,
			Text:              f.Text,
			AdditionalComment: f.AdditionalComment,
			Compound:          f.Compound,
			Neg:               f.Neg,
			Neu:               f.Neu,
			Pos:               f.Pos,
			Ratings:           f.Ratings,
			OverallScore:      f.OverallScore,
			CreatedAt:         f.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, records)
}

type subjectSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.store.ListSubjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]subjectSummary, 0, len(subjects))
	for _, subject := range subjects {
		resp = append(resp, subjectSummary{ID: subject.ID, Name: subject.Name})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListProfessors(w http.ResponseWriter, r *http.Request) {
	professors, err := s.store.ListProfessors(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]map[string]string, 0, len(professors))
	for _, professor := range professors {
		resp = append(resp, map[string]string{"id": professor.ID, "username": professor.Username})
	}
	writeJSON(w, http.StatusOK, resp)
}

type createSubjectRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var req createSubjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing_name")
		return
	}

	subject := model.Subject{
		ID:        uuid.NewString(),
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateSubject(r.Context(), subject); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			writeError(w, http.StatusConflict, "subject_exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusCreated, subjectSummary{ID: subject.ID, Name: subject.Name})
}

type assignSubjectRequest struct {
	ProfessorID string `json:"professor_id"`
}

func (s *Server) handleAssignSubject(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")
	if subjectID == "" {
		writeError(w, http.StatusBadRequest, "missing_subject_id")
		return
	}

	var req assignSubjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.ProfessorID == "" {
		writeError(w, http.StatusBadRequest, "missing_professor_id")
		return
	}

	if _, err := s.store.GetSubject(r.Context(), subjectID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "subject_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	professor, err := s.store.GetUserByID(r.Context(), req.ProfessorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "professor_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if professor.Role != model.RoleProfessor {
		writeError(w, http.StatusBadRequest, "not_a_professor")
		return
	}

	if err := s.store.AssignSubject(r.Context(), subjectID, professor.ID, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			writeError(w, http.StatusConflict, "already_assigned")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStudentsAtRisk(w http.ResponseWriter, r *http.Request) {
	subjectID := r.URL.Query().Get("subject_id")
	minLevel, ok := parseMinRisk(r.URL.Query().Get("min_risk"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_min_risk")
		return
	}

	if cached, ok := s.cachedRisk(r.Context(), subjectID, minLevel); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	aggregates, err := s.store.RiskAggregates(r.Context(), subjectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	assessments := make([]analytics.RiskAssessment, 0, len(aggregates))
	for _, agg := range aggregates {
		score := riskScore(agg.AverageScore, agg.AverageSentiment)
		level := riskLevel(score)
		if riskRank(level) < riskRank(minLevel) {
			continue
		}
		assessment := analytics.RiskAssessment{
			StudentID:        agg.StudentID,
			StudentUsername:  agg.StudentUsername,
			SubjectID:        agg.SubjectID,
			SubjectName:      agg.SubjectName,
			AverageSentiment: agg.AverageSentiment,
			FeedbackCount:    agg.FeedbackCount,
			RiskScore:        score,
			RiskLevel:        level,
		}
		if agg.AverageScore != nil {
			assessment.AverageScore = *agg.AverageScore
		}
		assessments = append(assessments, assessment)
	}
	sort.Slice(assessments, func(i, j int) bool {
		return assessments[i].RiskScore > assessments[j].RiskScore
	})

	s.cacheRisk(r.Context(), subjectID, minLevel, assessments)
	writeJSON(w, http.StatusOK, assessments)
}

func (s *Server) issueTokens(ctx context.Context, user model.User) (string, string, error) {
	accessToken, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := crypto.NewRefreshToken()
	if err != nil {
		return "", "", err
	}

	now := time.Now().UTC()
	session := model.RefreshSession{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: crypto.HashToken(refreshToken),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
	}
	if err := s.store.CreateRefreshSession(ctx, session); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func riskCacheKey(subjectID string, minLevel analytics.RiskLevel) string {
	return "risk:" + subjectID + ":" + string(minLevel)
}

func (s *Server) cachedRisk(ctx context.Context, subjectID string, minLevel analytics.RiskLevel) ([]analytics.RiskAssessment, bool) {
	if s.redis == nil {
		return nil, false
	}
	value, err := s.redis.Get(ctx, riskCacheKey(subjectID, minLevel)).Result()
	if err != nil {
		return nil, false
	}
	var assessments []analytics.RiskAssessment
	if err := json.Unmarshal([]byte(value), &assessments); err != nil {
		return nil, false
	}
	return assessments, true
}

func (s *Server) cacheRisk(ctx context.Context, subjectID string, minLevel analytics.RiskLevel, assessments []analytics.RiskAssessment) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(assessments)
	if err != nil {
		return
	}
	_ = s.redis.Set(ctx, riskCacheKey(subjectID, minLevel), data, s.cfg.RiskCacheTTL).Err()
}

// invalidateRiskCache drops the cached risk lists touched by a new feedback.
// Both the per-subject keys and the all-subjects keys go stale.
func (s *Server) invalidateRiskCache(ctx context.Context, subjectID string) {
	if s.redis == nil {
		return
	}
	keys := make([]string, 0, 6)
	for _, level := range []analytics.RiskLevel{analytics.RiskLow, analytics.RiskMedium, analytics.RiskHigh} {
		keys = append(keys, riskCacheKey(subjectID, level), riskCacheKey("", level))
	}
	_ = s.redis.Del(ctx, keys...).Err()
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}

		claims, err := auth.ParseToken(s.cfg.JWTSecret, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil || !isStaff(claims) {
			writeError(w, http.StatusForbidden, "staff_only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireCoordinator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil || claims.Role != model.RoleCoordinator {
			writeError(w, http.StatusForbidden, "coordinator_only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type claimsKey struct{}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func isStaff(claims *auth.Claims) bool {
	if claims == nil {
		return false
	}
	return claims.Role == model.RoleProfessor || claims.Role == model.RoleCoordinator
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func validRatings(ratings map[string]int) bool {
	for _, value := range ratings {
		if value < 1 || value > 5 {
			return false
		}
	}
	return true
}

// overallFromRatings maps the 1..5 rating mean onto [0, 1].
func overallFromRatings(ratings map[string]int) *float64 {
	if len(ratings) == 0 {
		return nil
	}
	sum := 0
	for _, value := range ratings {
		sum += value
	}
	mean := float64(sum) / float64(len(ratings))
	score := (mean - 1) / 4
	return &score
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
