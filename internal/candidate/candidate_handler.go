package candidate

import (
	"errors"
	"net/http"

	"votes-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CandidateHandler struct {
	candidateService CandidateService
}

func NewCandidateHandler(candidateService CandidateService) *CandidateHandler {
	return &CandidateHandler{candidateService: candidateService}
}

// CreateCandidate godoc
// @Summary      Register a candidate
// @Tags         candidates
// @Accept       json
// @Produce      json
// @Param        request body CreateCandidateRequest true "Candidate payload"
// @Success      201 {object} Candidate
// @Failure      400 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /candidates [post]
func (h *CandidateHandler) CreateCandidate(c *gin.Context) {
	var req CreateCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	candidate, err := h.candidateService.CreateCandidate(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "error creating candidate")
		return
	}
	c.JSON(http.StatusCreated, candidate)
}

// GetCandidate godoc
// @Summary      Get a candidate
// @Tags         candidates
// @Produce      json
// @Param        id path string true "Candidate ID"
// @Success      200 {object} Candidate
// @Failure      404 {object} response.ErrorResponse
// @Router       /candidates/{id} [get]
func (h *CandidateHandler) GetCandidate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid candidate id")
		return
	}

	candidate, err := h.candidateService.GetCandidate(c.Request.Context(), id)
	if err != nil {
		response.Error(c, http.StatusNotFound, err.Error())
		return
	}
	c.JSON(http.StatusOK, candidate)
}

// GetAllCandidates godoc
// @Summary      List candidates
// @Tags         candidates
// @Produce      json
// @Success      200 {array} Candidate
// @Router       /candidates [get]
func (h *CandidateHandler) GetAllCandidates(c *gin.Context) {
	candidates, err := h.candidateService.GetAllCandidates(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "error listing candidates")
		return
	}
	c.JSON(http.StatusOK, candidates)
}

// UpdateCandidate godoc
// @Summary      Update a candidate
// @Tags         candidates
// @Accept       json
// @Produce      json
// @Param        id path string true "Candidate ID"
// @Param        request body UpdateCandidateRequest true "Candidate payload"
// @Success      200 {object} Candidate
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /candidates/{id} [put]
func (h *CandidateHandler) UpdateCandidate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid candidate id")
		return
	}

	var req UpdateCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	candidate, err := h.candidateService.UpdateCandidate(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, ErrCandidateNotFound) {
			response.Error(c, http.StatusNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "error updating candidate")
		return
	}
	c.JSON(http.StatusOK, candidate)
}

// DeleteCandidate godoc
// @Summary      Delete a candidate
// @Tags         candidates
// @Param        id path string true "Candidate ID"
// @Success      204
// @Failure      404 {object} response.ErrorResponse
// @Security     BearerAuth
// @Router       /candidates/{id} [delete]
func (h *CandidateHandler) DeleteCandidate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid candidate id")
		return
	}

	if err := h.candidateService.DeleteCandidate(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrCandidateNotFound) {
			response.Error(c, http.StatusNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "error deleting candidate")
		return
	}
	c.Status(http.StatusNoContent)
}
