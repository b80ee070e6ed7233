package routes

import (
	"net/http"

	_ "github.com/oggyb/sms-framework/internal/docs" // swagger docs
	"github.com/oggyb/sms-framework/internal/response"
	swaggerHandler "github.com/swaggo/http-swagger"
)

type AppDeps struct {
	Home         HomeHandler
	Message      MessageHandler
	Gateway      GatewayHandler
	Verification VerificationHandler
	User         UserHandler
}

type HomeHandler interface {
	Index(w http.ResponseWriter, r *http.Request)
	Health(w http.ResponseWriter, r *http.Request)
}

type MessageHandler interface {
	QueueMessage(w http.ResponseWriter, r *http.Request)
	GetMessage(w http.ResponseWriter, r *http.Request)
	GetMessageReports(w http.ResponseWriter, r *http.Request)
	StartStopScheduler(w http.ResponseWriter, r *http.Request)
	SchedulerStatus(w http.ResponseWriter, r *http.Request)
}

type GatewayHandler interface {
	ReceiveDeliveryReport(w http.ResponseWriter, r *http.Request)
	ReceiveIncoming(w http.ResponseWriter, r *http.Request)
	ListGateways(w http.ResponseWriter, r *http.Request)
	Balance(w http.ResponseWriter, r *http.Request)
}

type VerificationHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Verify(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
}

type UserHandler interface {
	Upsert(w http.ResponseWriter, r *http.Request)
}

func Register(mux *http.ServeMux, d AppDeps) {
	mux.HandleFunc("GET /{$}", d.Home.Index)
	mux.HandleFunc("GET /health", d.Home.Health)

	mux.HandleFunc("POST /messages", d.Message.QueueMessage)
	mux.HandleFunc("GET /messages/{id}", d.Message.GetMessage)
	mux.HandleFunc("GET /messages/{id}/reports", d.Message.GetMessageReports)
	mux.HandleFunc("POST /scheduler", d.Message.StartStopScheduler)
	mux.HandleFunc("GET /scheduler", d.Message.SchedulerStatus)

	// Gateway callbacks
	mux.HandleFunc("POST /sms/delivery-report/receive/{gateway}", d.Gateway.ReceiveDeliveryReport)
	mux.HandleFunc("POST /sms/incoming/receive/{gateway}", d.Gateway.ReceiveIncoming)
	mux.HandleFunc("GET /gateways", d.Gateway.ListGateways)
	mux.HandleFunc("GET /gateways/{id}/balance", d.Gateway.Balance)

	mux.HandleFunc("POST /verifications", d.Verification.Create)
	mux.HandleFunc("POST /verifications/verify", d.Verification.Verify)
	mux.HandleFunc("GET /verifications", d.Verification.List)

	mux.HandleFunc("PUT /users/{id}", d.User.Upsert)

	//Swagger
	mux.HandleFunc("GET /swagger/", swaggerHandler.WrapHandler)

	// Fallback handler for undefined routes (404)
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.RespondError(w, http.StatusNotFound, "route not found")
	}))
}
