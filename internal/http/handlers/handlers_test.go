package handlers

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/go-playground/validator/v10"
)

const validDataset = `{
  "agents": [
    {
      "agent_id": "agent_001",
      "name": "Ava Chen",
      "skills": {"VPN_Troubleshooting": 9, "Networking": 7},
      "current_load": 2,
      "availability_status": "Available",
      "experience_level": 6
    }
  ],
  "tickets": [
    {
      "ticket_id": "TKT-0001",
      "title": "VPN down for all users",
      "description": "critical outage",
      "creation_timestamp": 1700000000
    }
  ]
}`

func TestParseDatasetFile_Valid(t *testing.T) {
	fh := makeMultipartFile(t, "dataset", "dataset.json", validDataset)
	dataset, errs := parseDatasetFile(fh)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(dataset.Agents) != 1 || len(dataset.Tickets) != 1 {
		t.Fatalf("unexpected dataset %+v", dataset)
	}
	if got := dataset.Agents[0].Skills.Tags(); len(got) != 2 || got[0] != "VPN_Troubleshooting" {
		t.Fatalf("skills order lost: %v", got)
	}
}

func TestParseDatasetFile_InvalidJSON(t *testing.T) {
	fh := makeMultipartFile(t, "dataset", "dataset.json", "{not json")
	_, errs := parseDatasetFile(fh)
	if len(errs) == 0 {
		t.Fatalf("expected parse error")
	}
}

func TestValidateDataset_RejectsBadRecords(t *testing.T) {
	h := &Handler{Validator: validator.New()}

	fh := makeMultipartFile(t, "dataset", "dataset.json", `{
	  "agents": [
	    {"agent_id": "", "name": "No ID", "skills": {}, "current_load": -1,
	     "availability_status": "Sleeping", "experience_level": 0}
	  ],
	  "tickets": []
	}`)
	dataset, errs := parseDatasetFile(fh)
	if len(errs) > 0 {
		t.Fatalf("parse should succeed, got %v", errs)
	}
	errs = h.validateDataset(dataset)
	if len(errs) == 0 {
		t.Fatalf("expected validation errors for bad agent record")
	}
}

func TestValidateDataset_RejectsDuplicates(t *testing.T) {
	h := &Handler{Validator: validator.New()}

	fh := makeMultipartFile(t, "dataset", "dataset.json", `{
	  "agents": [
	    {"agent_id": "a1", "name": "One", "skills": {}, "current_load": 0,
	     "availability_status": "Available", "experience_level": 1},
	    {"agent_id": "a1", "name": "Two", "skills": {}, "current_load": 0,
	     "availability_status": "Available", "experience_level": 1}
	  ],
	  "tickets": []
	}`)
	dataset, errs := parseDatasetFile(fh)
	if len(errs) > 0 {
		t.Fatalf("parse should succeed, got %v", errs)
	}
	errs = h.validateDataset(dataset)
	if len(errs) == 0 {
		t.Fatalf("expected duplicate agent_id error")
	}
}

func TestValidateDataset_AcceptsValid(t *testing.T) {
	h := &Handler{Validator: validator.New()}
	fh := makeMultipartFile(t, "dataset", "dataset.json", validDataset)
	dataset, errs := parseDatasetFile(fh)
	if len(errs) > 0 {
		t.Fatalf("parse should succeed, got %v", errs)
	}
	if errs = h.validateDataset(dataset); len(errs) > 0 {
		t.Fatalf("expected valid dataset, got %v", errs)
	}
}

func makeMultipartFile(t *testing.T, fieldName, filename, content string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(int64(buf.Len()))
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	files := form.File[fieldName]
	if len(files) == 0 {
		t.Fatalf("no file headers found")
	}
	return files[0]
}
