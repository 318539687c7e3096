package main

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine-go/internal/config"
	appHTTP "github.com/cmlabs-hris/attendance-engine-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine-go/internal/repository/postgresql"
	aggregationService "github.com/cmlabs-hris/attendance-engine-go/internal/service/aggregation"
	correctionService "github.com/cmlabs-hris/attendance-engine-go/internal/service/correction"
	derivationService "github.com/cmlabs-hris/attendance-engine-go/internal/service/derivation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn, int32(cfg.Database.MaxConns))
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	settingsRepo := postgresql.NewSettingsRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	punchRepo := postgresql.NewPunchRepository(db)
	leaveRepo := postgresql.NewLeaveRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	auditRepo := postgresql.NewAuditLogRepository(db)
	txRunner := postgresql.NewTxRunner(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	derivationSvc := derivationService.NewService(settingsRepo, holidayRepo, punchRepo, leaveRepo)
	aggregationSvc := aggregationService.NewService(derivationSvc, employeeRepo, cfg.Aggregation.Workers)
	correctionSvc := correctionService.NewService(txRunner, punchRepo, auditRepo, settingsRepo, holidayRepo, leaveRepo)

	attendanceHandler := appHTTP.NewAttendanceHandler(derivationSvc, aggregationSvc)
	correctionHandler := appHTTP.NewCorrectionHandler(correctionSvc)

	router := appHTTP.NewRouter(JWTService, attendanceHandler, correctionHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
