package main

import (
	"context"
	"fmt"
	common_api "go-shareguard/internal/common/api"
	"go-shareguard/internal/config"
	"go-shareguard/internal/database"
	"go-shareguard/internal/features/approval"
	"go-shareguard/internal/features/auth"
	"go-shareguard/internal/features/chain"
	"go-shareguard/internal/features/email"
	"go-shareguard/internal/features/ita"
	"go-shareguard/internal/features/jobs"
	"go-shareguard/internal/features/link"
	"go-shareguard/internal/features/notification"
	"go-shareguard/internal/features/policy"
	"go-shareguard/internal/features/report"
	"go-shareguard/internal/features/scan"
	"go-shareguard/internal/features/storage"
	"go-shareguard/internal/features/system"
	"go-shareguard/internal/features/user"
	"go-shareguard/internal/logger"
	"go-shareguard/internal/middleware"
	"go-shareguard/pkg/utils"
	"log"
	"time"

	_ "go-shareguard/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			utils.SetSecret(cfg.JWTSecret)
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, statuses approval.StatusRepository, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := statuses.EnsureIndexes(ctx); err != nil {
					logger.Error("failed to ensure approval status indexes", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

// @title           ShareGuard API
// @version         1.0
// @description     Approval workflow service for external share links.

// @host            localhost:8080
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Initialize Repositories
			user.NewUserRepository,
			chain.NewChainRepository,
			link.NewLinkRepository,
			approval.NewStatusRepository,
			notification.NewNotificationRepository,

			// Initialize Services
			user.NewDirectoryService,
			user.NewUserService,
			auth.NewAuthService,
			chain.NewChainService,
			link.NewLinkService,
			approval.NewStateService,
			approval.NewOrchestrator,
			email.NewEmailService,
			notification.NewNotificationService,
			report.NewReportService,
			policy.NewScriptPolicy,
			storage.NewLocalStorage,
			scan.NewSubmitter,
			scan.NewPostgresVerdictSource,
			scan.NewPollService,
			ita.NewBridge,
			ita.NewPollService,
			system.NewEventHub,
			jobs.NewScheduler,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(s approval.ApprovalService) link.ApprovalTrigger { return s },
			func(s approval.ApprovalService) link.OutcomeChecker { return s },
			func(s chain.ChainService) link.ReviserChecker { return s },
			func(s chain.ChainService) user.SecurityGroupListener { return s },
			func(s *scan.Submitter) approval.ScanSubmitter { return s },
			func(b ita.Bridge) approval.AuditBridge { return b },
			func(s notification.NotificationService) approval.NotificationGateway { return s },
			func(h *system.EventHub) approval.EventPublisher { return h },

			// Initialize Controllers
			auth.NewAuthController,
			user.NewUserController,
			chain.NewChainController,
			link.NewLinkController,
			approval.NewApprovalController,
			notification.NewNotificationController,
			report.NewReportController,
			system.NewWebSocketController,

			// Initialize API Routes
			AsRoute(auth.NewAuthApi),
			AsRoute(user.NewUserApi),
			AsRoute(chain.NewChainApi),
			AsRoute(link.NewLinkApi),
			AsRoute(approval.NewApprovalApi),
			AsRoute(notification.NewNotificationApi),
			AsRoute(report.NewReportApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewSwaggerApi),
			AsRoute(system.NewWebSocketApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			InitializeIndexes,
			// Instantiating the scheduler registers the poll jobs with the
			// lifecycle.
			func(s *jobs.Scheduler) {},
		),
	)

	app.Run()
}
