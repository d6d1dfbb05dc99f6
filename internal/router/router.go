package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "simreg/docs" // swagger docs registration

	"simreg/internal/handler"
	"simreg/internal/metrics"
	"simreg/internal/middleware"
	"simreg/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	wizards service.WizardService,
	wizardH *handler.WizardHandler,
	reportH *handler.ReportHandler,
	healthH *handler.HealthHandler,
	m *metrics.Metrics,
	metricsHandler http.Handler,
	allowedOrigins []string,
	adminKey string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(middleware.Metrics(m))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	// Public: starting a wizard issues its bearer token
	v1.POST("/wizards", wizardH.Create)

	// Wizard routes - require a valid wizard token
	current := v1.Group("/wizards/current")
	current.Use(middleware.WizardAuth(wizards))
	current.GET("", wizardH.Current)
	current.DELETE("", wizardH.Discard)
	current.POST("/back", wizardH.Back)
	current.POST("/restart", wizardH.Restart)
	current.POST("/cancel", wizardH.Cancel)
	current.POST("/error/dismiss", wizardH.DismissError)

	current.PUT("/mobile", wizardH.SetMobile)
	current.PUT("/agreement", wizardH.SetAgreement)
	current.POST("/request-code", wizardH.RequestCode)

	current.PUT("/otp/digits/:index", wizardH.SetOTPDigit)
	current.POST("/otp/paste", wizardH.PasteOTP)
	current.POST("/otp/verify", wizardH.VerifyOTP)
	current.POST("/otp/resend", wizardH.ResendOTP)

	current.POST("/reminders/accept", wizardH.AcceptReminders)
	current.GET("/reg-types", wizardH.RegTypes)
	current.POST("/reg-type", wizardH.SubmitRegType)
	current.POST("/scan-info/next", wizardH.ScanInfoNext)

	current.POST("/captures/document", wizardH.CaptureDocument)
	current.POST("/captures/document/retry", wizardH.RetryDocument)
	current.POST("/captures/selfie", wizardH.CaptureSelfie)
	current.POST("/captures/selfie/retry", wizardH.RetrySelfie)
	current.POST("/captures/next", wizardH.CapturesNext)

	current.POST("/personal/load", wizardH.LoadPersonal)
	current.PUT("/personal", wizardH.UpdatePersonal)
	current.PUT("/address/province", wizardH.SelectProvince)
	current.PUT("/address/city", wizardH.SelectCity)
	current.PUT("/address/barangay", wizardH.SelectBarangay)
	current.PUT("/address/postal-code", wizardH.SetPostalCode)
	current.POST("/address/banner/dismiss", wizardH.DismissAddressBanner)
	current.POST("/personal/submit", wizardH.SubmitPersonal)

	current.POST("/supporting-documents", wizardH.SubmitSupportingDocuments)
	current.POST("/review/confirm", wizardH.ConfirmReview)
	current.POST("/processing/wait", wizardH.AwaitProcessing)

	// Admin routes - operator reports
	admin := v1.Group("/admin")
	admin.Use(middleware.AdminKey(adminKey))
	admin.GET("/reports/funnel", reportH.Funnel)
	admin.GET("/reports/funnel.xlsx", reportH.FunnelWorkbook)
	admin.GET("/reports/funnel.csv", reportH.FunnelCSV)

	return r
}
