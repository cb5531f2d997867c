package e2e_test

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	. "github.com/onsi/gomega"

	"github.com/dstbp/vaultshard/internal/httpx"
	"github.com/dstbp/vaultshard/internal/ids"
	"github.com/dstbp/vaultshard/internal/keyfile"
	"github.com/dstbp/vaultshard/internal/model"
	"github.com/dstbp/vaultshard/internal/store/fsstore"
	"github.com/dstbp/vaultshard/internal/wire"
	"github.com/dstbp/vaultshard/pkg/curve"
	"github.com/dstbp/vaultshard/pkg/sm2sig"
	"github.com/dstbp/vaultshard/protocols/client"
	"github.com/dstbp/vaultshard/protocols/coordinator"
	"github.com/dstbp/vaultshard/protocols/node"
)

// testCurve returns the P-192 parameters used throughout this repo's
// tests (pkg/curve/curve_test.go and siblings).
func testCurve() *curve.Curve {
	p, _ := new(big.Int).SetString("fffffffffffffffffffffffffffffffeffffffffffffffff", 16)
	a, _ := new(big.Int).SetString("fffffffffffffffffffffffffffffffefffffffffffffffc", 16)
	b, _ := new(big.Int).SetString("64210519e59c80e70fa7e9ab72243049feb8deecc146b9b1", 16)
	gx, _ := new(big.Int).SetString("188da80eb03090f67cbf20eb43a18800f4ff0afd82ff1012", 16)
	gy, _ := new(big.Int).SetString("7192b95ffc8da78631011ed6b24cdd573f977a11e794811", 16)
	n, _ := new(big.Int).SetString("ffffffffffffffffffffffff99def836146bc9b1b4d22831", 16)
	c, err := curve.New(p, a, b, gx, gy, n)
	Expect(err).NotTo(HaveOccurred())
	return c
}

// tempDirer is the sliver of testing.TB/GinkgoTInterface this harness needs.
type tempDirer interface {
	TempDir() string
}

type nodeHandle struct {
	svc *node.Service
	srv *httptest.Server
	db  *fsstore.DB
}

// harness wires one coordinator and N storage nodes together over real
// HTTP, the way vaultctl's three roles would across separate processes.
type harness struct {
	ctx      context.Context
	curve    *curve.Curve
	params   model.SystemParameters
	coordSvc *coordinator.Service
	coordSrv *httptest.Server
	nodes    []*nodeHandle
}

func newHarness(t tempDirer, nodeCount, threshold int) *harness {
	ctx := context.Background()
	c := testCurve()

	coordPriv, coordPub, err := keyfile.Generate(c)
	Expect(err).NotTo(HaveOccurred())

	systemID, err := ids.NewServerID(func(string) (bool, error) { return false, nil })
	Expect(err).NotTo(HaveOccurred())

	params := model.SystemParameters{
		ID:            systemID,
		N:             nodeCount,
		T:             threshold,
		P:             wire.NewInt(c.P),
		A:             wire.NewInt(c.A),
		B:             wire.NewInt(c.B),
		Gx:            wire.NewInt(c.G.X()),
		Gy:            wire.NewInt(c.G.Y()),
		Order:         wire.NewInt(c.N),
		HashAlgorithm: "SHA256",
		SM2PublicKey:  model.FromPoint(coordPub),
	}

	coordDB, err := fsstore.Open(t.TempDir())
	Expect(err).NotTo(HaveOccurred())

	coordSvc := &coordinator.Service{
		Params: params,
		Curve:  c,
		DB:     coordDB,
		Collections: coordinator.Collections{
			Files:   "files",
			Servers: "servers",
			Users:   "users",
			Params:  "params",
		},
		PrivateKey:  coordPriv,
		Signer:      &sm2sig.Signer{Curve: c, UserID: systemID},
		HTTPClient:  &http.Client{Timeout: 5 * time.Second},
		NodeTimeout: 5 * time.Second,
		Log:         zerolog.Nop(),
	}
	coordSrv := httptest.NewServer(coordinator.NewRouter(coordSvc))

	h := &harness{ctx: ctx, curve: c, params: params, coordSvc: coordSvc, coordSrv: coordSrv}
	for i := 0; i < nodeCount; i++ {
		h.nodes = append(h.nodes, h.newNode(t, coordPub, systemID))
	}
	return h
}

func (h *harness) newNode(t tempDirer, coordPub curve.Point, systemID string) *nodeHandle {
	priv, pub, err := keyfile.Generate(h.curve)
	Expect(err).NotTo(HaveOccurred())

	db, err := fsstore.Open(t.TempDir())
	Expect(err).NotTo(HaveOccurred())

	svc := &node.Service{
		Curve:          h.curve,
		PrivateKey:     priv,
		PublicKey:      pub,
		CoordinatorSig: &sm2sig.Signer{Curve: h.curve, UserID: systemID},
		CoordinatorPub: coordPub,
		DB:             db,
		Collection:     "shares",
		Log:            zerolog.Nop(),
	}
	r := chi.NewRouter()
	svc.Routes(r)
	srv := httptest.NewServer(r)

	x, y := pub.ToTuple()
	var resp struct {
		ServerID string `json:"server_id"`
	}
	err = httpx.PostJSON(h.ctx, http.DefaultClient, h.coordSrv.URL+"/server/register",
		map[string]any{"address": srv.URL, "public_key": wire.PointTuple{X: x, Y: y}}, &resp)
	Expect(err).NotTo(HaveOccurred())
	svc.ServerID = resp.ServerID

	return &nodeHandle{svc: svc, srv: srv, db: db}
}

func (h *harness) close() {
	h.coordSrv.Close()
	for _, n := range h.nodes {
		n.srv.Close()
	}
}

// client builds an anonymous Client pointed at this harness's coordinator.
func (h *harness) client() *client.Client {
	return &client.Client{CoordinatorAddr: h.coordSrv.URL, HTTPClient: h.coordSrv.Client(), Log: zerolog.Nop()}
}

func (h *harness) registerUser(username, password string) string {
	userID, err := h.client().Register(h.ctx, username, password)
	Expect(err).NotTo(HaveOccurred())
	return userID
}

// downloaderClient registers a fresh curve keypair for userID and
// publishes it, the way vaultctl's `keypair` verb would for a downloader.
func (h *harness) downloaderClient(userID string) *client.Client {
	priv, pub, err := keyfile.Generate(h.curve)
	Expect(err).NotTo(HaveOccurred())
	cl := h.client()
	cl.PrivateKey, cl.PublicKey = priv, pub
	Expect(cl.PublishPublicKey(h.ctx, userID)).To(Succeed())
	return cl
}

type detailDoc struct {
	ID             string                     `json:"_id"`
	FileCiphertext string                     `json:"file_ciphertext"`
	FileIV         string                     `json:"file_iv"`
	FileName       string                     `json:"file_name"`
	FileSize       int64                      `json:"file_size"`
	FileHash       string                     `json:"file_hash"`
	DownloadCount  int                        `json:"download_count"`
	Commits        map[string]wire.PointTuple `json:"commits,omitempty"`
}

func (h *harness) detail(fileID string) (detailDoc, error) {
	var d detailDoc
	err := httpx.GetJSON(h.ctx, http.DefaultClient, h.coordSrv.URL+"/file/detail?file_uuid="+fileID, &d)
	return d, err
}

type shareEntry struct {
	ServerID string `json:"server_id"`
	EncShare string `json:"enc_share"`
}

type downloadDoc struct {
	EncSharesList []shareEntry `json:"enc_shares_list"`
}

func (h *harness) rawDownload(fileID, downloadUser string) (downloadDoc, error) {
	var d downloadDoc
	err := httpx.PostJSON(h.ctx, http.DefaultClient, h.coordSrv.URL+"/file/download",
		map[string]string{"file_uuid": fileID, "download_user": downloadUser}, &d)
	return d, err
}

func (h *harness) deleteFile(fileID, username string) error {
	return httpx.PostJSON(h.ctx, http.DefaultClient, h.coordSrv.URL+"/file/delete",
		map[string]string{"file_uuid": fileID, "username": username}, nil)
}

// signAndPost signs ciphertext as the coordinator would at share-generation
// time and posts it directly to n, bypassing the normal upload fan-out —
// used to replay a signcryption against a node that already holds a share.
func (h *harness) signAndPost(n *nodeHandle, fileID, ciphertext string) error {
	za, err := h.coordSvc.Signer.ComputeZA(h.curve.G.ScalarMult(h.coordSvc.PrivateKey))
	Expect(err).NotTo(HaveOccurred())
	sig, err := h.coordSvc.Signer.Sign([]byte(ciphertext), za, h.coordSvc.PrivateKey)
	Expect(err).NotTo(HaveOccurred())

	payload := model.Signcryption{
		ServerID:   n.svc.ServerID,
		FileID:     fileID,
		Ciphertext: ciphertext,
		Signature:  [2]wire.Int{wire.NewInt(sig.R), wire.NewInt(sig.S)},
	}
	return httpx.PostJSON(h.ctx, http.DefaultClient, n.srv.URL+"/sign_cryption", payload, nil)
}

// downloadRequestDirect calls n's /download_request directly, as the
// coordinator's collectShares fan-out would for one chosen node.
func (h *harness) downloadRequestDirect(n *nodeHandle, fileID string, pub curve.Point) shareEntry {
	x, y := pub.ToTuple()
	req := map[string]any{
		"file_uuid":     fileID,
		"download_user": map[string]any{"public_key": wire.PointTuple{X: x, Y: y}},
	}
	var resp shareEntry
	err := httpx.PostJSON(h.ctx, http.DefaultClient, n.srv.URL+"/download_request", req, &resp)
	Expect(err).NotTo(HaveOccurred())
	return resp
}

func (h *harness) shareRecord(n *nodeHandle, fileID string) (model.EncShareRecord, error) {
	var rec model.EncShareRecord
	err := n.db.FindOne(h.ctx, "shares", map[string]any{"_id": fileID}, &rec)
	return rec, err
}
