package connection

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"checkops/checklist"
	"checkops/config"
	checklistctl "checkops/controller/checklist"
	"checkops/controller/report"
	"checkops/scheduler"
	"checkops/services"
	"checkops/store"
)

// StartServer wires the stores, services and routes, starts the background
// scheduler, and serves HTTP until the process exits.
func StartServer(cfg *config.Config, log *zap.Logger) error {
	router := gin.Default()

	db, err := DBConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	app, fs, err := FBConnection(&cfg.Firebase)
	if err != nil {
		return fmt.Errorf("initialize firebase: %w", err)
	}

	templates := store.NewTemplates(db)
	instances := store.NewInstances(db)
	feed := store.NewReportFeed(db)
	notifier := services.NewPushNotifier(app, fs, db, log)

	instanceSvc := checklist.NewInstanceService(templates, instances, log)
	executionSvc := checklist.NewExecutionService(instances, notifier, log)
	verificationSvc := checklist.NewVerificationService(instances, notifier, log)

	loc := cfg.Location()

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Api is running!"})
	})

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = cfg.Server.CORS.AllowOrigins
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	if len(corsCfg.AllowOrigins) == 1 && corsCfg.AllowOrigins[0] == "*" {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
	}
	router.Use(cors.New(corsCfg))

	checklistctl.ChecklistController(router, checklistctl.Deps{
		Instances:    instanceSvc,
		Execution:    executionSvc,
		Verification: verificationSvc,
		Location:     loc,
		JWTSecret:    cfg.Auth.JWTSecret,
		HistoryLimit: cfg.Checklist.HistoryLimit,
	})

	report.ReportController(router, report.Deps{
		Feed:      feed,
		Location:  loc,
		JWTSecret: cfg.Auth.JWTSecret,
	})

	sched := scheduler.New(scheduler.Deps{
		Templates:           templates,
		Instances:           instances,
		InstanceService:     instanceSvc,
		Notifier:            notifier,
		Location:            loc,
		MaterializeCron:     cfg.Checklist.MaterializeCron,
		UpcomingLeadMinutes: cfg.Checklist.UpcomingLeadMinutes,
		Logger:              log,
	})
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	return router.Run(fmt.Sprintf(":%d", cfg.Server.Port))
}
