package indexer

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Service is the HTTP face of the indexer.
type Service struct {
	engine     *gin.Engine
	indexer    *ChainIndexer
	listenAddr string
}

func NewService(listenAddr string, indexer *ChainIndexer) *Service {
	r := gin.Default()
	s := &Service{
		engine:     r,
		indexer:    indexer,
		listenAddr: listenAddr,
	}
	s.engine.POST("/getProposals", s.handleGetProposals)
	s.engine.POST("/getVotes", s.handleGetVotes)
	s.engine.POST("/getDelegation", s.handleGetDelegation)
	s.engine.POST("/getRelays", s.handleGetRelays)
	return s
}

func (s *Service) Start() {
	s.engine.Run(s.listenAddr)
}

type GetProposalsReq struct {
	Id       string `json:"id"`
	Status   int64  `json:"status"` // negative means any
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type GetProposalsResponse struct {
	Proposals []Proposal `json:"proposals"`
	Total     uint64     `json:"total"`
}

func pageBounds(page, pageSize int) (offset, limit int) {
	if pageSize <= 0 || pageSize > 1000 {
		pageSize = 100
	}
	if page < 0 {
		page = 0
	}
	return page * pageSize, pageSize
}

func (s *Service) handleGetProposals(c *gin.Context) {
	var req GetProposalsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var response GetProposalsResponse
	response.Proposals = make([]Proposal, 0)
	if req.Id != "" {
		p, err := s.indexer.getProposalById(req.Id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, *p)
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}
	offset, limit := pageBounds(req.Page, req.PageSize)
	ps, total, err := s.indexer.getProposals(req.Status, offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Proposals = ps
	response.Total = total
	c.JSON(http.StatusOK, response)
}

type GetVotesReq struct {
	Proposal string `json:"proposal"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type GetVotesResponse struct {
	Votes []Vote `json:"votes"`
	Total uint64 `json:"total"`
}

func (s *Service) handleGetVotes(c *gin.Context) {
	var req GetVotesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Proposal == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proposal is required"})
		return
	}
	offset, limit := pageBounds(req.Page, req.PageSize)
	vs, total, err := s.indexer.getVotesByProposal(req.Proposal, offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetVotesResponse{Votes: vs, Total: total})
}

type GetDelegationReq struct {
	Account uint64 `json:"account"`
}

func (s *Service) handleGetDelegation(c *gin.Context) {
	var req GetDelegationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := s.indexer.getDelegation(req.Account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

type GetRelaysReq struct {
	Proposal string `json:"proposal"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type GetRelaysResponse struct {
	Relays []Relay `json:"relays"`
	Total  uint64  `json:"total"`
}

func (s *Service) handleGetRelays(c *gin.Context) {
	var req GetRelaysReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	offset, limit := pageBounds(req.Page, req.PageSize)
	rs, total, err := s.indexer.getRelays(req.Proposal, offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetRelaysResponse{Relays: rs, Total: total})
}
