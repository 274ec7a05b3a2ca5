package agent

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aiexpress/campaignctl/internal/models"
)

const maxListLimit = 100

// Server is a local stand-in for the campaign agent service. It speaks the
// same HTTP contract, stores records through a Store and produces templated
// copy, so the front-end can be developed and tested without the real agent.
type Server struct {
	store  Store
	writer *Copywriter
	delay  time.Duration
	logger *zap.Logger

	mu       sync.Mutex
	lastData *models.CampaignPayload
}

// NewServer builds a Server. delay is how long a submitted campaign stays
// pending before it completes, so the client's polling cycle is observable.
func NewServer(store Store, delay time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:  store,
		writer: NewCopywriter(),
		delay:  delay,
		logger: logger,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/chat", s.handleChat)
	router.POST("/campaigns", s.createCampaign)
	router.GET("/campaigns", s.listCampaigns)
	router.GET("/campaigns/latest", s.latestCampaign)
	router.GET("/datos-campania", s.getCampaignData)
	router.POST("/datos-campania", s.saveCampaignData)
	router.GET("/resultados-campania", s.campaignResults)
	router.GET("/health", s.health)

	return router
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("local agent listening", zap.String("addr", addr))
	return s.Router().Run(addr)
}

func (s *Server) createCampaign(c *gin.Context) {
	var payload models.CampaignPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "El cuerpo de la solicitud no es valido."})
		return
	}
	payload = payload.Normalized()
	if err := payload.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	record, err := s.store.CreatePending(c.Request.Context(), payload.Producto, payload.PublicoObjetivo)
	if err != nil {
		s.logger.Error("failed to create campaign", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "No se pudo guardar la campana."})
		return
	}

	go s.complete(record.ID, record.Producto, record.PublicoObjetivo)

	c.JSON(http.StatusOK, record)
}

// complete finishes a pending campaign after the configured delay. It runs
// detached from the request so the record is observable in pending state.
func (s *Server) complete(id, producto, publicoObjetivo string) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result := s.writer.Generate(producto, publicoObjetivo)
	if _, err := s.store.MarkCompleted(ctx, id, result); err != nil {
		s.logger.Error("failed to complete campaign", zap.String("id", id), zap.Error(err))
		if _, err := s.store.MarkFailed(ctx, id, "No se pudo generar la campana."); err != nil {
			s.logger.Error("failed to mark campaign failed", zap.String("id", id), zap.Error(err))
		}
	}
}

func (s *Server) listCampaigns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > maxListLimit {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "El parametro limit debe estar entre 1 y 100."})
		return
	}

	records, err := s.store.List(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list campaigns", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "No se pudieron leer las campanas."})
		return
	}
	if records == nil {
		records = []models.CampaignRecord{}
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) latestCampaign(c *gin.Context) {
	status := models.CampaignStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Estado desconocido: " + string(status)})
		return
	}

	record, err := s.store.Latest(c.Request.Context(), status)
	if err != nil {
		s.logger.Error("failed to fetch latest campaign", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "No se pudo leer la ultima campana."})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "No hay campanas disponibles."})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) handleChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "El cuerpo de la solicitud no es valido."})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "La conversacion no tiene mensajes."})
		return
	}

	last := req.Messages[len(req.Messages)-1]
	content := fmt.Sprintf("Recibido: %q. Para generar una campana completa usa el formulario de campanas.", last.Content)
	if req.Producto != "" {
		content = fmt.Sprintf("Anotado: producto %q, publico %q. Envia la campana para generar el contenido.", req.Producto, req.Publico)
	}

	c.JSON(http.StatusOK, models.ChatResponse{Messages: []models.Message{{
		ID:        uuid.New().String(),
		Role:      models.RoleAssistant,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}}})
}

func (s *Server) getCampaignData(c *gin.Context) {
	s.mu.Lock()
	data := s.lastData
	s.mu.Unlock()

	if data == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Todavia no se guardaron datos de campana."})
		return
	}
	c.JSON(http.StatusOK, data)
}

func (s *Server) saveCampaignData(c *gin.Context) {
	var payload models.CampaignPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "El cuerpo de la solicitud no es valido."})
		return
	}
	payload = payload.Normalized()
	if err := payload.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	s.lastData = &payload
	s.mu.Unlock()

	c.JSON(http.StatusOK, payload)
}

func (s *Server) campaignResults(c *gin.Context) {
	record, err := s.store.Latest(c.Request.Context(), models.StatusCompleted)
	if err != nil {
		s.logger.Error("failed to fetch campaign results", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "No se pudieron leer los resultados."})
		return
	}
	if record == nil || record.Result == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Todavia no hay resultados generados."})
		return
	}
	c.JSON(http.StatusOK, record.Result)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
