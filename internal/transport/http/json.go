package httpserver

import (
	"encoding/json"
	"net/http"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

type apiErrorJSON struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// writeStruct relays an upstream Struct verbatim as a JSON object.
func writeStruct(w http.ResponseWriter, status int, s *structpb.Struct) error {
	b, err := protojson.Marshal(s)
	if err != nil {
		writeAPIError(w, http.StatusBadGateway, "upstream_error", "upstream returned an invalid payload")
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(append(b, '\n'))
	return err
}
