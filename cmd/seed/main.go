package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/n8nhub/community_hub/internal/config"
	"github.com/n8nhub/community_hub/internal/database"
	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/repository"
	"github.com/n8nhub/community_hub/internal/services"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	file := flag.String("file", "seed/catalog.toml", "path of the TOML catalog")
	adminEmail := flag.String("admin", "", "email of an existing user to grant the admin role")
	flag.Parse()

	cfg := config.LoadConfig()
	logger.InitLogger(cfg.LogLevel)

	f, err := os.Open(*file)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to open catalog")
	}
	cat, err := loadCatalog(f)
	f.Close()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load catalog")
	}

	db, err := database.ConnectDB(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Database connection error")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	defer db.Client().Disconnect(context.Background())

	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.Log.WithError(err).Fatal("Failed to create indexes")
	}

	objectives := services.NewObjectiveService(repository.NewObjectiveRepository(db))
	for i := range cat.Groups {
		if err := objectives.UpsertGroup(ctx, &cat.Groups[i]); err != nil {
			logger.Log.WithError(err).WithField("key", cat.Groups[i].Key).Fatal("Failed to seed objective group")
		}
	}
	for i := range cat.Items {
		if err := objectives.UpsertItem(ctx, &cat.Items[i]); err != nil {
			logger.Log.WithError(err).WithField("key", cat.Items[i].Key).Fatal("Failed to seed objective item")
		}
	}

	gamificationRepo := repository.NewGamificationRepository(db)
	for i := range cat.Badges {
		if err := gamificationRepo.UpsertBadge(ctx, &cat.Badges[i]); err != nil {
			logger.Log.WithError(err).WithField("key", cat.Badges[i].Key).Fatal("Failed to seed badge")
		}
	}

	if len(cat.Sidebar) > 0 {
		dashboard := services.NewDashboardService(repository.NewDashboardRepository(db), nil, nil, nil, nil)
		if _, err := dashboard.SaveSidebar(ctx, cat.Sidebar); err != nil {
			logger.Log.WithError(err).Fatal("Failed to seed sidebar")
		}
	}

	if *adminEmail != "" {
		user, err := repository.NewUserRepository(db).GetUserByEmail(ctx, *adminEmail)
		if err != nil {
			logger.Log.WithError(err).WithField("email", *adminEmail).Fatal("Admin user not found")
		}
		roles := services.NewRoleService(repository.NewRoleRepository(db), nil, 0)
		if err := roles.Grant(ctx, user.ID, user.ID, models.RoleAdmin); err != nil {
			logger.Log.WithError(err).Fatal("Failed to grant admin role")
		}
	}

	logger.Log.WithFields(logrus.Fields{
		"groups":  len(cat.Groups),
		"items":   len(cat.Items),
		"badges":  len(cat.Badges),
		"sidebar": len(cat.Sidebar),
	}).Info("Catalog seeded")
}
