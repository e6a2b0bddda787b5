// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/echoprint/matchsrv/pkg/codec"
	"github.com/echoprint/matchsrv/pkg/types"
)

// IngestBody is the JSON request body for the typed /api/ingest operation.
type IngestBody struct {
	TrackID string `json:"track_id,omitempty" doc:"Track ID; one is generated if omitted" example:"TRABCDE123"`
	FpCode  string `json:"fp_code" doc:"Code string, either canonical or base64/zlib compressed" required:"true"`
	Length  int    `json:"length" doc:"Track length in seconds" required:"true"`
	CodeVer string `json:"codever" doc:"Fingerprint codec version used to produce fp_code" required:"true"`
	Artist  string `json:"artist,omitempty"`
	Release string `json:"release,omitempty"`
	Track   string `json:"track,omitempty"`
}

type ingestRequest struct {
	Body IngestBody
}

type ingestResponseBody struct {
	TrackID string `json:"track_id"`
	Status  string `json:"status"`
}

type ingestAPIResponse struct {
	Body ingestResponseBody
}

func createIngestHdlr(s *Server) func(ctx context.Context, in *ingestRequest) (*ingestAPIResponse, error) {
	return func(ctx context.Context, in *ingestRequest) (*ingestAPIResponse, error) {
		trackID := in.Body.TrackID
		if trackID == "" {
			trackID = newTrackID()
		}

		fpCode := in.Body.FpCode
		if codec.LooksCompressed(fpCode) {
			decoded, err := codec.Decode(fpCode)
			if err != nil {
				return nil, huma.Error400BadRequest("could not decode fp_code")
			}
			fpCode = decoded
		}

		fp := types.Fingerprint{
			TrackID: trackID,
			Code:    fpCode,
			Meta: types.Metadata{
				Length:  in.Body.Length,
				CodeVer: in.Body.CodeVer,
				Artist:  in.Body.Artist,
				Release: in.Body.Release,
				Track:   in.Body.Track,
			},
		}
		if err := s.Engine.Ingest(ctx, []types.Fingerprint{fp}, true); err != nil {
			return nil, huma.Error500InternalServerError(err.Error())
		}

		resp := &ingestAPIResponse{}
		resp.Body.TrackID = trackID
		resp.Body.Status = "ok"
		return resp, nil
	}
}

type queryRequest struct {
	FpCode string `query:"fp_code" required:"true" doc:"Code string to identify"`
	Elbow  int    `query:"elbow,omitempty" doc:"Override the engine's minimum-evidence threshold"`
}

type queryAPIResponseBody struct {
	Match   bool   `json:"match"`
	Message string `json:"message"`
	TrackID string `json:"track_id,omitempty"`
	Score   int    `json:"score,omitempty"`
}

type queryAPIResponse struct {
	Body queryAPIResponseBody
}

func createQueryHdlr(s *Server) func(ctx context.Context, in *queryRequest) (*queryAPIResponse, error) {
	return func(ctx context.Context, in *queryRequest) (*queryAPIResponse, error) {
		engine := *s.Engine
		if in.Elbow > 0 {
			engine.Elbow = in.Elbow
		}
		result := engine.BestMatch(ctx, in.FpCode)
		resp := &queryAPIResponse{}
		resp.Body.Match = result.Code.Match()
		resp.Body.Message = result.Code.Message()
		resp.Body.TrackID = result.TrackID
		resp.Body.Score = result.Score
		return resp, nil
	}
}

type deleteRequest struct {
	TrackID string `path:"trackID" doc:"Track ID to delete"`
}

type deleteAPIResponseBody struct {
	TrackID string `json:"track_id"`
	Status  string `json:"status"`
}

type deleteAPIResponse struct {
	Body deleteAPIResponseBody
}

func createDeleteHdlr(s *Server) func(ctx context.Context, in *deleteRequest) (*deleteAPIResponse, error) {
	return func(ctx context.Context, in *deleteRequest) (*deleteAPIResponse, error) {
		if err := s.Engine.Delete(ctx, []string{in.TrackID}); err != nil {
			return nil, huma.Error500InternalServerError(err.Error())
		}
		resp := &deleteAPIResponse{}
		resp.Body.TrackID = in.TrackID
		resp.Body.Status = "ok"
		return resp, nil
	}
}

// createRouteAPI registers the typed, self-documenting /api surface
// alongside the form-encoded /ingest, /query, /delete routes. It mirrors
// the same fingerprint/track operations for clients that prefer a
// JSON+OpenAPI contract over form submission.
func createRouteAPI(s *Server) func(r chi.Router) {
	return func(r chi.Router) {
		config := huma.DefaultConfig("Matchsrv fingerprint API", "1.0.0")
		config.Servers = []*huma.Server{
			{URL: "/api"},
		}
		config.Info.Description = "Ingest, query, and delete audio fingerprints."

		api := humachi.New(r, config)

		huma.Register(api, huma.Operation{
			OperationID:   "ingest-fingerprint",
			Method:        http.MethodPost,
			Path:          "/ingest",
			Summary:       "Ingest a fingerprint",
			Tags:          []string{"fingerprint"},
			DefaultStatus: http.StatusOK,
			Errors:        []int{400, 500},
		}, createIngestHdlr(s))

		huma.Register(api, huma.Operation{
			OperationID: "query-fingerprint",
			Method:      http.MethodGet,
			Path:        "/query",
			Summary:     "Identify a fingerprint",
			Tags:        []string{"fingerprint"},
			Errors:      []int{400},
		}, createQueryHdlr(s))

		huma.Register(api, huma.Operation{
			OperationID: "delete-track",
			Method:      http.MethodDelete,
			Path:        "/tracks/{trackID}",
			Summary:     "Delete a track's fingerprint",
			Tags:        []string{"fingerprint"},
			Errors:      []int{500},
		}, createDeleteHdlr(s))
	}
}
