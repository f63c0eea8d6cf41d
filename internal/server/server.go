package server

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/laiahq/platform/internal/activitylog"
	"github.com/laiahq/platform/internal/auth"
	authdomain "github.com/laiahq/platform/internal/auth/domain"
	"github.com/laiahq/platform/internal/billingconfig"
	"github.com/laiahq/platform/internal/config"
	"github.com/laiahq/platform/internal/docstore"
	"github.com/laiahq/platform/internal/invoice"
	invoicedomain "github.com/laiahq/platform/internal/invoice/domain"
	"github.com/laiahq/platform/internal/notification"
	"github.com/laiahq/platform/internal/organization"
	organizationdomain "github.com/laiahq/platform/internal/organization/domain"
	"github.com/laiahq/platform/internal/providers/email"
	"github.com/laiahq/platform/internal/providers/payment"
	"github.com/laiahq/platform/internal/providers/pdf"
	"github.com/laiahq/platform/internal/refund"
	refunddomain "github.com/laiahq/platform/internal/refund/domain"
	"github.com/laiahq/platform/internal/reminder"
	reminderdomain "github.com/laiahq/platform/internal/reminder/domain"
	"github.com/laiahq/platform/internal/reservation"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	auth.Module,
	activitylog.Module,
	billingconfig.Module,
	docstore.Module,
	email.Module,
	pdf.Module,
	payment.Module,
	invoice.Module,
	notification.Module,
	organization.Module,
	reservation.Module,
	refund.Module,
	reminder.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	genID           *snowflake.Node
	authSvc         authdomain.Service
	organizationSvc organizationdomain.Service
	invoiceSvc      invoicedomain.Service
	refundSvc       refunddomain.Service
	reminderSvc     reminderdomain.Service
	documents       docstore.Store
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	GenID           *snowflake.Node
	AuthSvc         authdomain.Service
	OrganizationSvc organizationdomain.Service
	InvoiceSvc      invoicedomain.Service
	RefundSvc       refunddomain.Service
	ReminderSvc     reminderdomain.Service
	Documents       docstore.Store
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		genID:           p.GenID,
		authSvc:         p.AuthSvc,
		organizationSvc: p.OrganizationSvc,
		invoiceSvc:      p.InvoiceSvc,
		refundSvc:       p.RefundSvc,
		reminderSvc:     p.ReminderSvc,
		documents:       p.Documents,
	}

	s.registerAPIRoutes()
	s.registerJobRoutes()
	s.registerDocumentRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	api.POST("/organizations", s.CreateOrganization)

	org := api.Group("", s.OrgContext())
	org.GET("/invoices", s.ListInvoices)
	org.GET("/invoices/:id", s.GetInvoice)

	admin := org.Group("", s.RequireRole(organizationdomain.RoleOwner, organizationdomain.RoleAdmin))
	admin.POST("/refunds", s.CreateRefund)
	admin.GET("/refunds", s.ListRefunds)
}

func (s *Server) registerJobRoutes() {
	jobs := s.engine.Group("/api/jobs", s.CronAuthRequired())
	jobs.POST("/payment-reminders", s.RunPaymentReminders)
}

// registerDocumentRoutes publishes rendered invoice PDFs under the stable
// /invoices/<invoiceNumber>.pdf contract.
func (s *Server) registerDocumentRoutes() {
	s.engine.Static("/invoices", filepath.Join(s.documents.Root(), "invoices"))
}
