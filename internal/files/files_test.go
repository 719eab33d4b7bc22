package files_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/deck-translate/internal/deck/pptx/pptxtest"
	"github.com/JaimeStill/deck-translate/internal/files"
	"github.com/JaimeStill/deck-translate/pkg/apperror"
	"github.com/JaimeStill/deck-translate/pkg/storage"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func deckBytes() []byte {
	return pptxtest.Build(
		pptxtest.Slide(pptxtest.Text("Hello")),
		pptxtest.Slide(pptxtest.Text("World")),
	)
}

func newSystem(maxSize int64) (files.System, *storage.Memory) {
	blobs := storage.NewMemory()
	return files.New(files.NewMemoryStore(), blobs, maxSize, discard()), blobs
}

func TestSystem_Upload(t *testing.T) {
	sys, blobs := newSystem(1 << 20)
	ctx := context.Background()
	data := deckBytes()

	f, err := sys.Upload(ctx, files.UploadCommand{
		UserID:   "u1",
		Filename: "Quarterly Review.pptx",
		Data:     data,
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if f.SlideCount != 2 {
		t.Errorf("SlideCount = %d, want 2", f.SlideCount)
	}
	if f.Name != "Quarterly Review.pptx" {
		t.Errorf("Name = %q, want filename default", f.Name)
	}
	if f.ContentType != files.ContentType {
		t.Errorf("ContentType = %q", f.ContentType)
	}
	if len(f.ContentHash) != 64 {
		t.Errorf("ContentHash = %q, want sha256 hex", f.ContentHash)
	}
	if want := "files/" + f.ID.String() + "/Quarterly_Review.pptx"; f.StorageKey != want {
		t.Errorf("StorageKey = %q, want %q", f.StorageKey, want)
	}
	if ok, _ := blobs.Validate(ctx, f.StorageKey); !ok {
		t.Error("blob not stored")
	}

	found, err := sys.Find(ctx, f.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	got, err := sys.Data(ctx, found)
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("Data returned different bytes")
	}
}

func TestSystem_UploadRejects(t *testing.T) {
	deck := deckBytes()

	tests := []struct {
		name string
		cmd  files.UploadCommand
		max  int64
		code apperror.Code
	}{
		{"empty", files.UploadCommand{Filename: "a.pptx"}, 1 << 20, apperror.CodeValidation},
		{"too large", files.UploadCommand{Filename: "a.pptx", Data: deck}, 10, apperror.CodeFileTooLarge},
		{"not zip", files.UploadCommand{Filename: "a.pptx", Data: []byte("plain text")}, 1 << 20, apperror.CodeUnsupportedFileType},
		{"wrong extension", files.UploadCommand{Filename: "a.docx", Data: deck}, 1 << 20, apperror.CodeUnsupportedFileType},
		{"zip without presentation", files.UploadCommand{Filename: "a.pptx", Data: []byte("PK\x03\x04garbage")}, 1 << 20, apperror.CodeUnsupportedFileType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys, _ := newSystem(tt.max)
			_, err := sys.Upload(context.Background(), tt.cmd)
			if !apperror.Is(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestSystem_UploadAcceptsContentType(t *testing.T) {
	sys, _ := newSystem(1 << 20)
	_, err := sys.Upload(context.Background(), files.UploadCommand{
		Filename:    "deck",
		ContentType: files.ContentType,
		Data:        deckBytes(),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
}

func TestSystem_FindMissing(t *testing.T) {
	sys, _ := newSystem(1 << 20)
	_, err := sys.Find(context.Background(), uuid.New())
	if !apperror.Is(err, apperror.CodeFileNotFound) {
		t.Fatalf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"deck.pptx", "deck.pptx"},
		{"my deck.pptx", "my_deck.pptx"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\deck.pptx`, "deck.pptx"},
		{"..", "upload.pptx"},
		{"", "upload.pptx"},
	}
	for _, tt := range tests {
		if got := files.SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func multipartBody(t *testing.T, filename string, data []byte, name string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", "application/octet-stream")
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)

	if name != "" {
		mw.WriteField("name", name)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func newMux(sys files.System) *http.ServeMux {
	h := files.NewHandler(sys, discard(), apperror.Development)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /files", h.Upload)
	mux.HandleFunc("GET /files/{id}", h.Find)
	return mux
}

func TestHandler_Upload(t *testing.T) {
	sys, _ := newSystem(1 << 20)
	mux := newMux(sys)

	body, ct := multipartBody(t, "deck.pptx", deckBytes(), "Board deck")
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-User-ID", "u7")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var f files.File
	if err := json.NewDecoder(rec.Body).Decode(&f); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Name != "Board deck" || f.UserID != "u7" || f.SlideCount != 2 {
		t.Errorf("file = %+v", f)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/"+f.ID.String(), nil))
	if rec.Code != http.StatusOK {
		t.Errorf("find status = %d", rec.Code)
	}
}

func TestHandler_Errors(t *testing.T) {
	sys, _ := newSystem(1 << 20)
	mux := newMux(sys)

	tests := []struct {
		name   string
		req    func() *http.Request
		status int
		code   string
	}{
		{
			name: "bad id",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/files/not-a-uuid", nil)
			},
			status: http.StatusBadRequest,
			code:   "INVALID_INPUT",
		},
		{
			name: "missing",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/files/"+uuid.NewString(), nil)
			},
			status: http.StatusNotFound,
			code:   "FILE_NOT_FOUND",
		},
		{
			name: "no file field",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/files", strings.NewReader(""))
				r.Header.Set("Content-Type", "multipart/form-data; boundary=x")
				return r
			},
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
		{
			name: "unsupported",
			req: func() *http.Request {
				body, ct := multipartBody(t, "notes.txt", []byte("hello"), "")
				r := httptest.NewRequest(http.MethodPost, "/files", body)
				r.Header.Set("Content-Type", ct)
				return r
			},
			status: http.StatusUnsupportedMediaType,
			code:   "UNSUPPORTED_FILE_TYPE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, tt.req())

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body)
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.code)
			}
		})
	}
}

func TestHandler_UploadTooLarge(t *testing.T) {
	sys, _ := newSystem(64)
	mux := newMux(sys)

	body, ct := multipartBody(t, "deck.pptx", bytes.Repeat([]byte("x"), 2<<20), "")
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}
