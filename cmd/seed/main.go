package main

import (
	"context"
	"time"

	"go-shareguard/internal/config"
	"go-shareguard/internal/database"
	"go-shareguard/internal/features/chain"
	"go-shareguard/internal/features/user"
	"go-shareguard/internal/logger"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Seed loads a demo directory and approval chains for local development.
// Existing users are left alone so the seeder can be re-run.
func Seed(
	lc fx.Lifecycle,
	userRepo user.UserRepository,
	chains chain.ChainService,
	logger *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						logger.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				logger.Info("Seeding demo directory and approval chains...")

				users := []user.User{
					{Email: "admin@corp.com", DisplayName: "Admin", Department: "IT", Company: "corp", IsActive: true, IsAdmin: true},
					{Email: "alice@corp.com", DisplayName: "Alice Zhang", Department: "Sales", Company: "corp", IsActive: true},
					{Email: "bob@corp.com", DisplayName: "Bob Keller", Department: "Sales", Company: "corp", IsActive: true},
					{Email: "carol@corp.com", DisplayName: "Carol Diaz", Department: "Legal", Company: "corp", IsActive: true},
					{Email: "sec1@corp.com", DisplayName: "Security One", Department: "Compliance", Company: "corp", IsActive: true, IsSecurity: true},
					{Email: "sec2@corp.com", DisplayName: "Security Two", Department: "Compliance", Company: "corp", IsActive: true, IsSecurity: true},
				}

				created := 0
				for i := range users {
					u := &users[i]
					existing, err := userRepo.GetByEmail(ctx, u.Email)
					if err != nil {
						logger.Error("Failed to look up user", zap.String("email", u.Email), zap.Error(err))
						continue
					}
					if existing != nil {
						continue
					}
					hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
					if err != nil {
						logger.Error("Failed to hash password", zap.Error(err))
						continue
					}
					u.PasswordHash = string(hash)
					u.CreatedAt = time.Now()
					if err := userRepo.Create(ctx, u); err != nil {
						logger.Error("Failed to create user", zap.String("email", u.Email), zap.Error(err))
						continue
					}
					created++
				}
				logger.Info("Users seeded", zap.Int("created", created), zap.Int("total", len(users)))

				deptEntries := []string{
					"Sales<->bob@corp.com->carol@corp.com",
					"Legal<->carol@corp.com",
				}
				success, failed := chains.ReplaceDepartmentChains(ctx, deptEntries)
				logger.Info("Department chains seeded",
					zap.Int("stored", len(success)), zap.Int("rejected", len(failed)))

				userEntries := []string{
					"alice@corp.com<->bob@corp.com->sec1@corp.com|sec2@corp.com",
				}
				success, failed = chains.ReplaceUserChains(ctx, userEntries)
				logger.Info("User chains seeded",
					zap.Int("stored", len(success)), zap.Int("rejected", len(failed)))

				logger.Info("Seeding complete")
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,

			user.NewUserRepository,
			chain.NewChainRepository,

			user.NewDirectoryService,
			chain.NewChainService,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	app.Run()
}
