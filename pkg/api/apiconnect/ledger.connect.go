// Package apiconnect wires the carpool.v1 services to Connect handlers and
// clients.
package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/carpool/pkg/api"
)

const (
	// LedgerServiceName is the fully-qualified name of the LedgerService service.
	LedgerServiceName = "carpool.v1.LedgerService"
)

// Procedure names of LedgerService, as used in HTTP paths.
const (
	LedgerServiceAddTripProcedure        = "/carpool.v1.LedgerService/AddTrip"
	LedgerServiceUpdateLegProcedure      = "/carpool.v1.LedgerService/UpdateLeg"
	LedgerServiceRemoveLegsProcedure     = "/carpool.v1.LedgerService/RemoveLegs"
	LedgerServiceListLegsProcedure       = "/carpool.v1.LedgerService/ListLegs"
	LedgerServiceGetSummaryProcedure     = "/carpool.v1.LedgerService/GetSummary"
	LedgerServiceGetSettingsProcedure    = "/carpool.v1.LedgerService/GetSettings"
	LedgerServiceUpdateSettingsProcedure = "/carpool.v1.LedgerService/UpdateSettings"
	LedgerServiceExportSnapshotProcedure = "/carpool.v1.LedgerService/ExportSnapshot"
	LedgerServiceImportSnapshotProcedure = "/carpool.v1.LedgerService/ImportSnapshot"
	LedgerServiceExportReportProcedure   = "/carpool.v1.LedgerService/ExportReport"
	LedgerServiceListSavesProcedure      = "/carpool.v1.LedgerService/ListSaves"
)

// LedgerServiceHandler is implemented by the server side of LedgerService.
type LedgerServiceHandler interface {
	AddTrip(context.Context, *connect.Request[api.AddTripRequest]) (*connect.Response[api.AddTripResponse], error)
	UpdateLeg(context.Context, *connect.Request[api.UpdateLegRequest]) (*connect.Response[api.UpdateLegResponse], error)
	RemoveLegs(context.Context, *connect.Request[api.RemoveLegsRequest]) (*connect.Response[api.RemoveLegsResponse], error)
	ListLegs(context.Context, *connect.Request[api.ListLegsRequest]) (*connect.Response[api.ListLegsResponse], error)
	GetSummary(context.Context, *connect.Request[api.GetSummaryRequest]) (*connect.Response[api.GetSummaryResponse], error)
	GetSettings(context.Context, *connect.Request[api.GetSettingsRequest]) (*connect.Response[api.GetSettingsResponse], error)
	UpdateSettings(context.Context, *connect.Request[api.UpdateSettingsRequest]) (*connect.Response[api.UpdateSettingsResponse], error)
	ExportSnapshot(context.Context, *connect.Request[api.ExportSnapshotRequest]) (*connect.Response[api.ExportSnapshotResponse], error)
	ImportSnapshot(context.Context, *connect.Request[api.ImportSnapshotRequest]) (*connect.Response[api.ImportSnapshotResponse], error)
	ExportReport(context.Context, *connect.Request[api.ExportReportRequest]) (*connect.Response[api.ExportReportResponse], error)
	ListSaves(context.Context, *connect.Request[api.ListSavesRequest]) (*connect.Response[api.ListSavesResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler for svc. It returns the path
// to mount the handler on.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{api.WithJSON()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(LedgerServiceAddTripProcedure, connect.NewUnaryHandler(LedgerServiceAddTripProcedure, svc.AddTrip, opts...))
	mux.Handle(LedgerServiceUpdateLegProcedure, connect.NewUnaryHandler(LedgerServiceUpdateLegProcedure, svc.UpdateLeg, opts...))
	mux.Handle(LedgerServiceRemoveLegsProcedure, connect.NewUnaryHandler(LedgerServiceRemoveLegsProcedure, svc.RemoveLegs, opts...))
	mux.Handle(LedgerServiceListLegsProcedure, connect.NewUnaryHandler(LedgerServiceListLegsProcedure, svc.ListLegs, opts...))
	mux.Handle(LedgerServiceGetSummaryProcedure, connect.NewUnaryHandler(LedgerServiceGetSummaryProcedure, svc.GetSummary, opts...))
	mux.Handle(LedgerServiceGetSettingsProcedure, connect.NewUnaryHandler(LedgerServiceGetSettingsProcedure, svc.GetSettings, opts...))
	mux.Handle(LedgerServiceUpdateSettingsProcedure, connect.NewUnaryHandler(LedgerServiceUpdateSettingsProcedure, svc.UpdateSettings, opts...))
	mux.Handle(LedgerServiceExportSnapshotProcedure, connect.NewUnaryHandler(LedgerServiceExportSnapshotProcedure, svc.ExportSnapshot, opts...))
	mux.Handle(LedgerServiceImportSnapshotProcedure, connect.NewUnaryHandler(LedgerServiceImportSnapshotProcedure, svc.ImportSnapshot, opts...))
	mux.Handle(LedgerServiceExportReportProcedure, connect.NewUnaryHandler(LedgerServiceExportReportProcedure, svc.ExportReport, opts...))
	mux.Handle(LedgerServiceListSavesProcedure, connect.NewUnaryHandler(LedgerServiceListSavesProcedure, svc.ListSaves, opts...))
	return "/" + LedgerServiceName + "/", mux
}

// LedgerServiceClient is a client for LedgerService.
type LedgerServiceClient interface {
	AddTrip(context.Context, *connect.Request[api.AddTripRequest]) (*connect.Response[api.AddTripResponse], error)
	UpdateLeg(context.Context, *connect.Request[api.UpdateLegRequest]) (*connect.Response[api.UpdateLegResponse], error)
	RemoveLegs(context.Context, *connect.Request[api.RemoveLegsRequest]) (*connect.Response[api.RemoveLegsResponse], error)
	ListLegs(context.Context, *connect.Request[api.ListLegsRequest]) (*connect.Response[api.ListLegsResponse], error)
	GetSummary(context.Context, *connect.Request[api.GetSummaryRequest]) (*connect.Response[api.GetSummaryResponse], error)
	GetSettings(context.Context, *connect.Request[api.GetSettingsRequest]) (*connect.Response[api.GetSettingsResponse], error)
	UpdateSettings(context.Context, *connect.Request[api.UpdateSettingsRequest]) (*connect.Response[api.UpdateSettingsResponse], error)
	ExportSnapshot(context.Context, *connect.Request[api.ExportSnapshotRequest]) (*connect.Response[api.ExportSnapshotResponse], error)
	ImportSnapshot(context.Context, *connect.Request[api.ImportSnapshotRequest]) (*connect.Response[api.ImportSnapshotResponse], error)
	ExportReport(context.Context, *connect.Request[api.ExportReportRequest]) (*connect.Response[api.ExportReportResponse], error)
	ListSaves(context.Context, *connect.Request[api.ListSavesRequest]) (*connect.Response[api.ListSavesResponse], error)
}

// NewLedgerServiceClient constructs a client for the LedgerService served at
// baseURL, e.g. http://localhost:8080.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{api.WithJSON()}, opts...)
	return &ledgerServiceClient{
		addTrip:        connect.NewClient[api.AddTripRequest, api.AddTripResponse](httpClient, baseURL+LedgerServiceAddTripProcedure, opts...),
		updateLeg:      connect.NewClient[api.UpdateLegRequest, api.UpdateLegResponse](httpClient, baseURL+LedgerServiceUpdateLegProcedure, opts...),
		removeLegs:     connect.NewClient[api.RemoveLegsRequest, api.RemoveLegsResponse](httpClient, baseURL+LedgerServiceRemoveLegsProcedure, opts...),
		listLegs:       connect.NewClient[api.ListLegsRequest, api.ListLegsResponse](httpClient, baseURL+LedgerServiceListLegsProcedure, opts...),
		getSummary:     connect.NewClient[api.GetSummaryRequest, api.GetSummaryResponse](httpClient, baseURL+LedgerServiceGetSummaryProcedure, opts...),
		getSettings:    connect.NewClient[api.GetSettingsRequest, api.GetSettingsResponse](httpClient, baseURL+LedgerServiceGetSettingsProcedure, opts...),
		updateSettings: connect.NewClient[api.UpdateSettingsRequest, api.UpdateSettingsResponse](httpClient, baseURL+LedgerServiceUpdateSettingsProcedure, opts...),
		exportSnapshot: connect.NewClient[api.ExportSnapshotRequest, api.ExportSnapshotResponse](httpClient, baseURL+LedgerServiceExportSnapshotProcedure, opts...),
		importSnapshot: connect.NewClient[api.ImportSnapshotRequest, api.ImportSnapshotResponse](httpClient, baseURL+LedgerServiceImportSnapshotProcedure, opts...),
		exportReport:   connect.NewClient[api.ExportReportRequest, api.ExportReportResponse](httpClient, baseURL+LedgerServiceExportReportProcedure, opts...),
		listSaves:      connect.NewClient[api.ListSavesRequest, api.ListSavesResponse](httpClient, baseURL+LedgerServiceListSavesProcedure, opts...),
	}
}

type ledgerServiceClient struct {
	addTrip        *connect.Client[api.AddTripRequest, api.AddTripResponse]
	updateLeg      *connect.Client[api.UpdateLegRequest, api.UpdateLegResponse]
	removeLegs     *connect.Client[api.RemoveLegsRequest, api.RemoveLegsResponse]
	listLegs       *connect.Client[api.ListLegsRequest, api.ListLegsResponse]
	getSummary     *connect.Client[api.GetSummaryRequest, api.GetSummaryResponse]
	getSettings    *connect.Client[api.GetSettingsRequest, api.GetSettingsResponse]
	updateSettings *connect.Client[api.UpdateSettingsRequest, api.UpdateSettingsResponse]
	exportSnapshot *connect.Client[api.ExportSnapshotRequest, api.ExportSnapshotResponse]
	importSnapshot *connect.Client[api.ImportSnapshotRequest, api.ImportSnapshotResponse]
	exportReport   *connect.Client[api.ExportReportRequest, api.ExportReportResponse]
	listSaves      *connect.Client[api.ListSavesRequest, api.ListSavesResponse]
}

func (c *ledgerServiceClient) AddTrip(ctx context.Context, req *connect.Request[api.AddTripRequest]) (*connect.Response[api.AddTripResponse], error) {
	return c.addTrip.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) UpdateLeg(ctx context.Context, req *connect.Request[api.UpdateLegRequest]) (*connect.Response[api.UpdateLegResponse], error) {
	return c.updateLeg.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) RemoveLegs(ctx context.Context, req *connect.Request[api.RemoveLegsRequest]) (*connect.Response[api.RemoveLegsResponse], error) {
	return c.removeLegs.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListLegs(ctx context.Context, req *connect.Request[api.ListLegsRequest]) (*connect.Response[api.ListLegsResponse], error) {
	return c.listLegs.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetSummary(ctx context.Context, req *connect.Request[api.GetSummaryRequest]) (*connect.Response[api.GetSummaryResponse], error) {
	return c.getSummary.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetSettings(ctx context.Context, req *connect.Request[api.GetSettingsRequest]) (*connect.Response[api.GetSettingsResponse], error) {
	return c.getSettings.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) UpdateSettings(ctx context.Context, req *connect.Request[api.UpdateSettingsRequest]) (*connect.Response[api.UpdateSettingsResponse], error) {
	return c.updateSettings.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ExportSnapshot(ctx context.Context, req *connect.Request[api.ExportSnapshotRequest]) (*connect.Response[api.ExportSnapshotResponse], error) {
	return c.exportSnapshot.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ImportSnapshot(ctx context.Context, req *connect.Request[api.ImportSnapshotRequest]) (*connect.Response[api.ImportSnapshotResponse], error) {
	return c.importSnapshot.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ExportReport(ctx context.Context, req *connect.Request[api.ExportReportRequest]) (*connect.Response[api.ExportReportResponse], error) {
	return c.exportReport.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListSaves(ctx context.Context, req *connect.Request[api.ListSavesRequest]) (*connect.Response[api.ListSavesResponse], error) {
	return c.listSaves.CallUnary(ctx, req)
}

// UnimplementedLedgerServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedLedgerServiceHandler struct{}

func (UnimplementedLedgerServiceHandler) AddTrip(context.Context, *connect.Request[api.AddTripRequest]) (*connect.Response[api.AddTripResponse], error) {
	return nil, unimplemented(LedgerServiceAddTripProcedure)
}

func (UnimplementedLedgerServiceHandler) UpdateLeg(context.Context, *connect.Request[api.UpdateLegRequest]) (*connect.Response[api.UpdateLegResponse], error) {
	return nil, unimplemented(LedgerServiceUpdateLegProcedure)
}

func (UnimplementedLedgerServiceHandler) RemoveLegs(context.Context, *connect.Request[api.RemoveLegsRequest]) (*connect.Response[api.RemoveLegsResponse], error) {
	return nil, unimplemented(LedgerServiceRemoveLegsProcedure)
}

func (UnimplementedLedgerServiceHandler) ListLegs(context.Context, *connect.Request[api.ListLegsRequest]) (*connect.Response[api.ListLegsResponse], error) {
	return nil, unimplemented(LedgerServiceListLegsProcedure)
}

func (UnimplementedLedgerServiceHandler) GetSummary(context.Context, *connect.Request[api.GetSummaryRequest]) (*connect.Response[api.GetSummaryResponse], error) {
	return nil, unimplemented(LedgerServiceGetSummaryProcedure)
}

func (UnimplementedLedgerServiceHandler) GetSettings(context.Context, *connect.Request[api.GetSettingsRequest]) (*connect.Response[api.GetSettingsResponse], error) {
	return nil, unimplemented(LedgerServiceGetSettingsProcedure)
}

func (UnimplementedLedgerServiceHandler) UpdateSettings(context.Context, *connect.Request[api.UpdateSettingsRequest]) (*connect.Response[api.UpdateSettingsResponse], error) {
	return nil, unimplemented(LedgerServiceUpdateSettingsProcedure)
}

func (UnimplementedLedgerServiceHandler) ExportSnapshot(context.Context, *connect.Request[api.ExportSnapshotRequest]) (*connect.Response[api.ExportSnapshotResponse], error) {
	return nil, unimplemented(LedgerServiceExportSnapshotProcedure)
}

func (UnimplementedLedgerServiceHandler) ImportSnapshot(context.Context, *connect.Request[api.ImportSnapshotRequest]) (*connect.Response[api.ImportSnapshotResponse], error) {
	return nil, unimplemented(LedgerServiceImportSnapshotProcedure)
}

func (UnimplementedLedgerServiceHandler) ExportReport(context.Context, *connect.Request[api.ExportReportRequest]) (*connect.Response[api.ExportReportResponse], error) {
	return nil, unimplemented(LedgerServiceExportReportProcedure)
}

func (UnimplementedLedgerServiceHandler) ListSaves(context.Context, *connect.Request[api.ListSavesRequest]) (*connect.Response[api.ListSavesResponse], error) {
	return nil, unimplemented(LedgerServiceListSavesProcedure)
}

func unimplemented(procedure string) error {
	return connect.NewError(connect.CodeUnimplemented, errors.New(strings.TrimPrefix(procedure, "/")+" is not implemented"))
}
