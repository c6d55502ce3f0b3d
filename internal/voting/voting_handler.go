package voting

import (
	"errors"
	"net/http"

	"votes-service/internal/middleware"
	"votes-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VotingHandler struct {
	votingService VotingService
}

func NewVotingHandler(votingService VotingService) *VotingHandler {
	return &VotingHandler{votingService: votingService}
}

// CastVote godoc
// @Summary      Cast a vote
// @Description  Register a single irrevocable vote for a candidate
// @Tags         votes
// @Accept       json
// @Produce      json
// @Param        request body VoteRequest true "Vote payload"
// @Success      200 {object} VoteResponse
// @Failure      400 {object} response.ErrorResponse "duplicate vote or invalid payload"
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /votes [post]
func (h *VotingHandler) CastVote(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.votingService.CastVote(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateVote):
			response.Error(c, http.StatusBadRequest, err.Error())
		default:
			// Includes ledger failures after the gate committed; retrying
			// with the same identity and election is rejected as duplicate.
			response.Error(c, http.StatusInternalServerError, "error processing vote")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CheckVotingStatus godoc
// @Summary      Check voting status
// @Description  Report whether the authenticated user has voted in an election
// @Tags         votes
// @Produce      json
// @Param        electionId query string false "Election ID (default election when omitted)"
// @Success      200 {object} VotingStatusResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /votes/status [get]
func (h *VotingHandler) CheckVotingStatus(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	electionID, err := optionalUUIDQuery(c, "electionId")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid electionId")
		return
	}

	resp, err := h.votingService.CheckStatus(c.Request.Context(), userID, electionID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "error checking status")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CountByCandidate godoc
// @Summary      Count votes for a candidate
// @Description  Read path consumed by the reporting service
// @Tags         votes
// @Produce      json
// @Param        candidateId path string true "Candidate ID"
// @Param        electionId query string false "Election ID (default election when omitted)"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /votes/candidates/{candidateId}/count [get]
func (h *VotingHandler) CountByCandidate(c *gin.Context) {
	candidateID, err := uuid.Parse(c.Param("candidateId"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid candidateId")
		return
	}
	electionID, err := optionalUUIDQuery(c, "electionId")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid electionId")
		return
	}

	entries, err := h.votingService.ListByCandidate(c.Request.Context(), candidateID, electionID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "error counting votes")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"candidateId": candidateID,
		"count":       len(entries),
	})
}

// Health godoc
// @Summary      Health check
// @Tags         votes
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /votes/health [get]
func (h *VotingHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func optionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
