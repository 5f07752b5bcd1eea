package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Anditinnis/game-distribution-platform/internal/access"
	"github.com/Anditinnis/game-distribution-platform/internal/domain"
	"github.com/Anditinnis/game-distribution-platform/internal/identity"
	"github.com/Anditinnis/game-distribution-platform/internal/repository"
	"github.com/Anditinnis/game-distribution-platform/internal/service"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type gameCreateRequest struct {
	Title       string  `json:"title"`
	Price       string  `json:"price"`
	RentalPrice *string `json:"rentalPrice"`
	RentalDays  *int    `json:"rentalDays"`
	IsFree      bool    `json:"isFree"`
}

type gameUpdateRequest struct {
	Price       *string `json:"price"`
	RentalPrice *string `json:"rentalPrice"`
	RentalDays  *int    `json:"rentalDays"`
	IsFree      *bool   `json:"isFree"`
	Status      *string `json:"status"`
}

type gameResponse struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	DeveloperID   string  `json:"developerId"`
	Price         string  `json:"price"`
	RentalPrice   *string `json:"rentalPrice,omitempty"`
	RentalDays    *int    `json:"rentalDays,omitempty"`
	IsFree        bool    `json:"isFree"`
	Status        string  `json:"status"`
	AverageRating float64 `json:"averageRating"`
	RatingCount   int64   `json:"ratingCount"`
	CreatedAt     string  `json:"createdAt"`
}

type purchaseRequest struct {
	GameID string `json:"gameId"`
	Kind   string `json:"kind"`
}

type entitlementResponse struct {
	ID         string  `json:"id"`
	GameID     string  `json:"gameId"`
	Kind       string  `json:"kind"`
	AmountPaid string  `json:"amountPaid"`
	GrantedAt  string  `json:"grantedAt"`
	ExpiresAt  *string `json:"expiresAt,omitempty"`
	Active     bool    `json:"active"`
}

type entitlementListResponse struct {
	Items []entitlementResponse `json:"items"`
}

type reviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

type reviewResponse struct {
	ID        string `json:"id"`
	GameID    string `json:"gameId"`
	UserID    string `json:"userId"`
	Rating    int    `json:"rating"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

type postRequest struct {
	Content string `json:"content"`
}

type postResponse struct {
	ID        string `json:"id"`
	TopicID   string `json:"topicId"`
	AuthorID  string `json:"authorId"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

type accountResponse struct {
	ID      string `json:"id"`
	Balance string `json:"balance"`
	Role    string `json:"role"`
}

// authenticate exchanges the bearer token for an actor and makes sure a
// ledger account exists for it. Returns false after writing the 401.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return domain.Actor{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(s.cfg.IdentityTimeoutSecs)*time.Second)
	defer cancel()

	actor, err := s.identity.Resolve(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, identity.ErrUnauthorized) {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
			return domain.Actor{}, false
		}
		s.logger.Printf("identity resolve failed: %v", err)
		s.respondError(w, http.StatusBadGateway, "IDENTITY_UNAVAILABLE", "Identity provider unavailable")
		return domain.Actor{}, false
	}

	if err := s.repo.Accounts.Ensure(r.Context(), actor.ID); err != nil {
		s.logger.Printf("ensure account %s: %v", actor.ID, err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve account")
		return domain.Actor{}, false
	}
	return actor, true
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if d := access.CanCreateListing(actor); !d.Allowed {
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", d.Reason)
		return
	}

	var req gameCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required")
		return
	}
	price, err := parseMoney(req.Price)
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "price must be a non-negative decimal string")
		return
	}
	rentalPrice, err := parseMoneyPtr(req.RentalPrice)
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "rentalPrice must be a non-negative decimal string")
		return
	}
	if req.RentalDays != nil && *req.RentalDays <= 0 {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "rentalDays must be positive")
		return
	}

	game, err := s.repo.Games.Create(r.Context(), repository.GameCreateParams{
		Title:       strings.TrimSpace(req.Title),
		DeveloperID: actor.ID,
		Price:       price,
		RentalPrice: rentalPrice,
		RentalDays:  req.RentalDays,
		IsFree:      req.IsFree,
	})
	if err != nil {
		s.logger.Printf("create game error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create listing")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/games/%s", game.ID))
	s.respondJSON(w, http.StatusCreated, toGameResponse(game))
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	game, err := s.repo.Games.GetByID(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		s.logger.Printf("get game error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch listing")
		return
	}
	s.respondJSON(w, http.StatusOK, toGameResponse(game))
}

func (s *Server) handleUpdateGame(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	gameID := chi.URLParam(r, "gameID")
	game, err := s.repo.Games.GetByID(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		s.logger.Printf("get game error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch listing")
		return
	}
	if d := access.CanMutateListing(actor, game); !d.Allowed {
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", d.Reason)
		return
	}

	var req gameUpdateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	price, err := parseMoneyPtr(req.Price)
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "price must be a non-negative decimal string")
		return
	}
	rentalPrice, err := parseMoneyPtr(req.RentalPrice)
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "rentalPrice must be a non-negative decimal string")
		return
	}
	if req.RentalDays != nil && *req.RentalDays <= 0 {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "rentalDays must be positive")
		return
	}
	var status *domain.GameStatus
	if req.Status != nil {
		st := domain.GameStatus(*req.Status)
		if !st.Valid() {
			s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "status must be one of draft, published, hidden")
			return
		}
		status = &st
	}

	updated, err := s.repo.Games.Update(r.Context(), gameID, repository.GameUpdateParams{
		Price:       price,
		RentalPrice: rentalPrice,
		RentalDays:  req.RentalDays,
		IsFree:      req.IsFree,
		Status:      status,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		s.logger.Printf("update game error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update listing")
		return
	}
	s.respondJSON(w, http.StatusOK, toGameResponse(updated))
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req purchaseRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if strings.TrimSpace(req.GameID) == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "gameId is required")
		return
	}

	ent, err := s.purchases.Purchase(r.Context(), actor, req.GameID, domain.EntitlementKind(req.Kind))
	if err != nil {
		s.respondServiceError(w, err, "Failed to process purchase")
		return
	}
	s.respondJSON(w, http.StatusCreated, toEntitlementResponse(ent, time.Now().UTC()))
}

func (s *Server) handleListEntitlements(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	ents, err := s.repo.Entitlements.ListByUser(r.Context(), actor.ID)
	if err != nil {
		s.logger.Printf("list entitlements error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list purchases")
		return
	}

	now := time.Now().UTC()
	resp := entitlementListResponse{Items: make([]entitlementResponse, 0, len(ents))}
	for _, e := range ents {
		resp.Items = append(resp.Items, toEntitlementResponse(e, now))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req reviewRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	review, err := s.reviews.Submit(r.Context(), actor, chi.URLParam(r, "gameID"), req.Rating, req.Text)
	if err != nil {
		s.respondServiceError(w, err, "Failed to submit review")
		return
	}
	s.respondJSON(w, http.StatusCreated, reviewResponse{
		ID:        review.ID,
		GameID:    review.GameID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		Text:      review.Body,
		CreatedAt: review.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req postRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	post, err := s.forum.PostInTopic(r.Context(), actor, chi.URLParam(r, "topicID"), req.Content)
	if err != nil {
		s.respondServiceError(w, err, "Failed to create post")
		return
	}
	s.respondJSON(w, http.StatusCreated, postResponse{
		ID:        post.ID,
		TopicID:   post.TopicID,
		AuthorID:  post.AuthorID,
		Content:   post.Content,
		CreatedAt: post.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGetMyAccount(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	account, err := s.repo.Accounts.Get(r.Context(), actor.ID)
	if err != nil {
		s.logger.Printf("get account error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch account")
		return
	}
	s.respondJSON(w, http.StatusOK, accountResponse{
		ID:      account.ID,
		Balance: account.Balance.String(),
		Role:    string(actor.Role),
	})
}

// respondServiceError maps service and repository sentinels onto the error
// envelope contract.
func (s *Server) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrGameNotFound), errors.Is(err, service.ErrTopicNotFound):
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, repository.ErrAlreadyEntitled):
		s.respondError(w, http.StatusConflict, "CONFLICT", "Entitlement already granted")
	case errors.Is(err, repository.ErrDuplicateReview):
		s.respondError(w, http.StatusConflict, "CONFLICT", "Review already submitted")
	case errors.Is(err, service.ErrForbidden):
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, repository.ErrInsufficientFunds):
		s.respondError(w, http.StatusPaymentRequired, "INSUFFICIENT_FUNDS", "Account balance does not cover the price")
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, repository.ErrInvalidAmount):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, service.ErrConflict):
		s.respondError(w, http.StatusConflict, "CONFLICT", "Concurrent update, retry the request")
	default:
		s.logger.Printf("request failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}

func toGameResponse(game domain.GameListing) gameResponse {
	resp := gameResponse{
		ID:            game.ID,
		Title:         game.Title,
		DeveloperID:   game.DeveloperID,
		Price:         game.Price.String(),
		RentalDays:    game.RentalDays,
		IsFree:        game.IsFree,
		Status:        string(game.Status),
		AverageRating: game.AverageRating,
		RatingCount:   game.RatingCount,
		CreatedAt:     game.CreatedAt.UTC().Format(time.RFC3339),
	}
	if game.RentalPrice != nil {
		v := game.RentalPrice.String()
		resp.RentalPrice = &v
	}
	return resp
}

func toEntitlementResponse(ent domain.Entitlement, now time.Time) entitlementResponse {
	resp := entitlementResponse{
		ID:         ent.ID,
		GameID:     ent.GameID,
		Kind:       string(ent.Kind),
		AmountPaid: ent.AmountPaid.String(),
		GrantedAt:  ent.GrantedAt.UTC().Format(time.RFC3339),
		Active:     ent.IsActive(now),
	}
	if ent.ExpiresAt != nil {
		v := ent.ExpiresAt.UTC().Format(time.RFC3339)
		resp.ExpiresAt = &v
	}
	return resp
}

func parseMoney(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, err
	}
	if d.Sign() < 0 {
		return decimal.Decimal{}, fmt.Errorf("negative amount")
	}
	return d, nil
}

func parseMoneyPtr(raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := parseMoney(*raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Printf("failed to encode response: %v", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}
