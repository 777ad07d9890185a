// Package response writes the JSON bodies shared by handlers and middleware.
package response

import (
	"encoding/json"
	"net/http"
)

type ErrorBody struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

type MessageBody struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// Unauthorized tells the client to go to the login page.
func Unauthorized(w http.ResponseWriter, loginPage string) {
	JSON(w, http.StatusUnauthorized, ErrorBody{Error: "Unauthorized", Redirect: loginPage})
}
