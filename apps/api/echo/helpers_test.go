package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/campus/apps/api/echo"
	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
	emailsvc "github.com/trezcool/campus/services/email"
	inmemdb "github.com/trezcool/campus/storage/database/inmem"
)

type testApp struct {
	server *echoapi.Server
	issuer *echoapi.TokenIssuer
	repo   user.Repository
	mail   *emailsvc.ConsoleService
}

func testConf() *core.Config {
	conf := &core.Config{AppName: "Campus", SecretKey: "test-secret", TestMode: true}
	conf.Server.JWTExpirationDelta = 15 * time.Minute
	conf.Server.JWTRefreshExpirationDelta = time.Hour
	return conf
}

func setup(t *testing.T) testApp {
	t.Helper()
	conf := testConf()

	repo := inmemdb.NewUserRepository(inmemdb.NewDB())
	mail := emailsvc.NewConsoleServiceMock(conf)
	validate, translator := core.NewValidator()
	usrSvc := user.NewService(repo, mail, validate, translator)
	issuer := echoapi.NewTokenIssuer(conf)

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		UserSvc:        usrSvc,
		Issuer:         issuer,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return testApp{server: server, issuer: issuer, repo: repo, mail: mail}
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

type response struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type authData struct {
	User         user.User              `json:"user"`
	Profile      map[string]interface{} `json:"profile"`
	Token        string                 `json:"token"`
	RefreshToken string                 `json:"refreshToken"`
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func do(s *echoapi.Server, method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	s.ServeHTTP(rec, req)
	return rec
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func failure(t *testing.T, msg string, fields ...map[string]string) []byte {
	t.Helper()
	obj := map[string]interface{}{"success": false, "message": msg}
	if len(fields) > 0 {
		obj["errors"] = fields[0]
	}
	return marshalObj(t, obj)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) response {
	t.Helper()
	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data), rec.Body.String())
	}
	return resp
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
