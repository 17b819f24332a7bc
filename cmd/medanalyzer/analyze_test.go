package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyzeCmd_PrintsSections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"preliminaryAssessment":"**Mild** case","possibleCauses":"B","urgencyLevel":"C","recommendations":"D","doctorRecommendation":"E"}`))
	}))
	defer srv.Close()

	out, err := runCLI("analyze", "--server", srv.URL,
		"--age", "30", "--gender", "male", "--complaint", "headache",
		"--symptom", "fever", "--duration", "1-3_days")
	require.NoError(t, err)

	assert.Contains(t, out, "Preliminary assessment\nMild case\n")
	assert.Contains(t, out, "Which doctor to see\nE\n")
}

func TestAnalyzeCmd_MissingFieldSendsNothing(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	_, err := runCLI("analyze", "--server", srv.URL,
		"--age", "30", "--gender", "male", "--complaint", "headache", "--duration", "1-3_days")

	require.Error(t, err)
	assert.Equal(t, msgMissingFields, err.Error())
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestAnalyzeCmd_ServerFailureIsGeneric(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Failed to parse AI analysis","rawResponse":"oops"}`))
	}))
	defer srv.Close()

	out, err := runCLI("analyze", "--server", srv.URL,
		"--age", "30", "--gender", "male", "--complaint", "headache",
		"--symptom", "fever", "--duration", "1-3_days")

	require.Error(t, err)
	assert.Equal(t, msgAnalysisFailed, err.Error())
	assert.NotContains(t, out, "oops")
}
