package api

import (
	"context"
	"net/http"

	"github.com/psbridge/psbridge/internal/execution"
	"github.com/psbridge/psbridge/internal/results"
)

const (
	actionServiceManagement = "ServiceManagement"
	actionSystemInfo        = "SystemInfo"

	defaultServiceTimeoutSeconds = 120
	defaultReportPath            = `C:\temp\ps-output`
)

// Executor runs one execution request
type Executor interface {
	Execute(ctx context.Context, req execution.Request) results.Response
}

// ExecutionHandler serves the script execution endpoints
type ExecutionHandler struct {
	executor Executor
}

// NewExecutionHandler creates a new execution handler
func NewExecutionHandler(executor Executor) *ExecutionHandler {
	return &ExecutionHandler{executor: executor}
}

// ExecuteScript handles POST /execute-script
func (h *ExecutionHandler) ExecuteScript(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[execution.Request](w, r)
	if !ok {
		return
	}

	resp := h.executor.Execute(r.Context(), req)

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusInternalServerError
	}
	sendJSON(w, status, resp)
}

// ManageServicesRequest is the body of POST /manage-services
type ManageServicesRequest struct {
	Targets     []string `json:"targets" validate:"required,min=1,dive,required"`
	ServiceName string   `json:"serviceName" validate:"required"`
	Action      string   `json:"action" validate:"required"`
	Timeout     int      `json:"timeout,omitempty" validate:"gte=0"`
}

// ServiceResult is the per-host view of a service management run
type ServiceResult struct {
	Host           string `json:"host"`
	ServiceName    string `json:"serviceName"`
	PreviousStatus string `json:"previousStatus"`
	CurrentStatus  string `json:"currentStatus"`
	Changed        bool   `json:"changed"`
	Message        string `json:"message"`
}

// ManageServicesResponse is returned by POST /manage-services
type ManageServicesResponse struct {
	Success     bool            `json:"success"`
	ExecutionID string          `json:"executionId"`
	Message     string          `json:"message"`
	Results     []ServiceResult `json:"results"`
}

// ManageServices handles POST /manage-services by running the
// ServiceManagement action.
func (h *ExecutionHandler) ManageServices(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[ManageServicesRequest](w, r)
	if !ok {
		return
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = defaultServiceTimeoutSeconds
	}

	resp := h.executor.Execute(r.Context(), execution.Request{
		Targets: req.Targets,
		Action:  actionServiceManagement,
		Parameters: map[string]any{
			"serviceName":   req.ServiceName,
			"serviceAction": req.Action,
		},
		Options: execution.Options{Timeout: timeout},
	})

	out := ManageServicesResponse{
		Success:     resp.Success,
		ExecutionID: resp.ExecutionID,
		Message:     resp.Message,
		Results:     make([]ServiceResult, 0, len(resp.Results)),
	}
	for _, host := range resp.Results {
		out.Results = append(out.Results, serviceResult(req.ServiceName, host))
	}

	sendJSON(w, http.StatusOK, out)
}

// SystemInfoRequest is the body of POST /system-info
type SystemInfoRequest struct {
	Targets    []string `json:"targets" validate:"required,min=1,dive,required"`
	OutputPath string   `json:"outputPath,omitempty"`
}

// SystemInfo is what could be recovered about one host
type SystemInfo struct {
	ComputerName  string  `json:"computerName"`
	OS            string  `json:"os"`
	OSVersion     string  `json:"osVersion"`
	TotalMemoryGB float64 `json:"totalMemoryGB"`
	Processor     string  `json:"processor"`
	LastBootTime  string  `json:"lastBootTime"`
}

// DiskInfo describes one logical disk
type DiskInfo struct {
	Drive  string  `json:"drive"`
	SizeGB float64 `json:"sizeGB"`
	FreeGB float64 `json:"freeGB"`
}

// SystemInfoResult is the per-host view of a system info run
type SystemInfoResult struct {
	Host       string     `json:"host"`
	SystemInfo SystemInfo `json:"systemInfo"`
	DiskInfo   []DiskInfo `json:"diskInfo"`
	ReportPath string     `json:"reportPath"`
}

// SystemInfoResponse is returned by POST /system-info
type SystemInfoResponse struct {
	Success     bool               `json:"success"`
	ExecutionID string             `json:"executionId"`
	Message     string             `json:"message"`
	Results     []SystemInfoResult `json:"results"`
}

// SystemInfo handles POST /system-info by running the SystemInfo action
func (h *ExecutionHandler) SystemInfo(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[SystemInfoRequest](w, r)
	if !ok {
		return
	}

	reportPath := req.OutputPath
	if reportPath == "" {
		reportPath = defaultReportPath
	}

	resp := h.executor.Execute(r.Context(), execution.Request{
		Targets:    req.Targets,
		Action:     actionSystemInfo,
		Parameters: map[string]any{"outputPath": reportPath},
	})

	out := SystemInfoResponse{
		Success:     resp.Success,
		ExecutionID: resp.ExecutionID,
		Message:     resp.Message,
		Results:     make([]SystemInfoResult, 0, len(resp.Results)),
	}
	for _, host := range resp.Results {
		out.Results = append(out.Results, systemInfoResult(host, reportPath))
	}

	sendJSON(w, http.StatusOK, out)
}
