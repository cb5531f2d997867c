package e2e_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dstbp/vaultshard/internal/apierr"
	"github.com/dstbp/vaultshard/internal/store"
	"github.com/dstbp/vaultshard/pkg/filecrypt"
)

const plaintext = "hello world"

func writeUploadFile(dir string) string {
	path := filepath.Join(dir, "greeting.txt")
	Expect(os.WriteFile(path, []byte(plaintext), 0o644)).To(Succeed())
	return path
}

func writeEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "status": "success", "error_code": 200})
}

// newRelayServer stands in for the coordinator's fixed-T/N selection in
// handleFileDownload, so a test can hand the client more than T share
// responses (here: 4-of-5) and check its filter-and-continue logic,
// while /system/parameters and /file/detail still mirror the real
// coordinator's state.
func newRelayServer(h *harness, detail detailDoc, shares []shareEntry) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/system/parameters", func(w http.ResponseWriter, r *http.Request) { writeEnvelope(w, h.params) })
	mux.HandleFunc("/file/detail", func(w http.ResponseWriter, r *http.Request) { writeEnvelope(w, detail) })
	mux.HandleFunc("/file/download", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, downloadDoc{EncSharesList: shares})
	})
	return httptest.NewServer(mux)
}

var _ = Describe("Threshold file storage", func() {
	var h *harness

	AfterEach(func() {
		if h != nil {
			h.close()
			h = nil
		}
	})

	// S1: upload splits the file across all N nodes under a T-of-N
	// commitment set.
	It("fans an upload out to every node and commits to a T-degree polynomial", func() {
		h = newHarness(GinkgoT(), 5, 3)
		h.registerUser("alice", "correct horse battery staple")

		path := writeUploadFile(GinkgoT().TempDir())
		result, err := h.client().Upload(h.ctx, path, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.FileID).NotTo(BeEmpty())

		detail, err := h.detail(result.FileID)
		Expect(err).NotTo(HaveOccurred())
		Expect(detail.FileHash).To(Equal(filecrypt.Digest([]byte(plaintext))))
		Expect(detail.Commits).To(HaveLen(3))
		Expect(detail.Commits).To(HaveKey("0"))
		Expect(detail.Commits).To(HaveKey("1"))
		Expect(detail.Commits).To(HaveKey("2"))

		for _, n := range h.nodes {
			_, err := h.shareRecord(n, result.FileID)
			Expect(err).NotTo(HaveOccurred())
		}
	})

	// S2: a fresh-keypair downloader reconstructs the file from exactly
	// T node responses.
	It("lets a fresh downloader reconstruct and decrypt the file from T shares", func() {
		h = newHarness(GinkgoT(), 5, 3)
		h.registerUser("alice", "correct horse battery staple")
		bobID := h.registerUser("bob", "hunter2-hunter2")

		path := writeUploadFile(GinkgoT().TempDir())
		result, err := h.client().Upload(h.ctx, path, "alice")
		Expect(err).NotTo(HaveOccurred())

		raw, err := h.rawDownload(result.FileID, "bob")
		Expect(err).NotTo(HaveOccurred())
		Expect(raw.EncSharesList).To(HaveLen(3))

		bob := h.downloaderClient(bobID)
		destDir := GinkgoT().TempDir()
		savedPath, err := bob.Download(h.ctx, result.FileID, "bob", destDir)
		Expect(err).NotTo(HaveOccurred())

		got, err := os.ReadFile(savedPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(got)).To(Equal(plaintext))
	})

	// S3: a corrupted share among more-than-T responses is discarded by
	// commitment verification, and reconstruction still succeeds from the
	// remaining genuine shares.
	It("discards a corrupted share and reconstructs from the rest", func() {
		h = newHarness(GinkgoT(), 5, 3)
		h.registerUser("alice", "correct horse battery staple")
		bobID := h.registerUser("bob", "hunter2-hunter2")

		path := writeUploadFile(GinkgoT().TempDir())
		result, err := h.client().Upload(h.ctx, path, "alice")
		Expect(err).NotTo(HaveOccurred())

		detail, err := h.detail(result.FileID)
		Expect(err).NotTo(HaveOccurred())

		bob := h.downloaderClient(bobID)

		entries := make([]shareEntry, 4)
		for i := 0; i < 4; i++ {
			entries[i] = h.downloadRequestDirect(h.nodes[i], result.FileID, bob.PublicKey)
		}
		entries[1].EncShare = corrupt(entries[1].EncShare)

		relay := newRelayServer(h, detail, entries)
		defer relay.Close()

		bob.CoordinatorAddr = relay.URL
		bob.HTTPClient = relay.Client()

		destDir := GinkgoT().TempDir()
		savedPath, err := bob.Download(h.ctx, result.FileID, "bob", destDir)
		Expect(err).NotTo(HaveOccurred())

		got, err := os.ReadFile(savedPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(got)).To(Equal(plaintext))
	})

	// S4: fewer than T nodes reachable surfaces a reconstruction failure
	// to the client instead of a partial/incorrect key.
	It("surfaces a reconstruction failure when fewer than T nodes respond", func() {
		h = newHarness(GinkgoT(), 5, 3)
		h.registerUser("alice", "correct horse battery staple")
		bobID := h.registerUser("bob", "hunter2-hunter2")

		path := writeUploadFile(GinkgoT().TempDir())
		result, err := h.client().Upload(h.ctx, path, "alice")
		Expect(err).NotTo(HaveOccurred())

		// Only 2 of 5 registered nodes remain reachable: any 3 the
		// coordinator draws must include at least one dead node.
		h.nodes[2].srv.Close()
		h.nodes[3].srv.Close()
		h.nodes[4].srv.Close()

		bob := h.downloaderClient(bobID)
		_, err = bob.Download(h.ctx, result.FileID, "bob", GinkgoT().TempDir())
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, apierr.ErrReconstructFailed)).To(BeTrue())
	})

	// S5: replaying a validly-signed signcryption for a file id a node
	// already holds a share for is rejected as a duplicate, and the
	// node's original share is untouched.
	It("rejects a replayed signcryption for an already-held file id", func() {
		h = newHarness(GinkgoT(), 5, 3)
		h.registerUser("alice", "correct horse battery staple")

		path := writeUploadFile(GinkgoT().TempDir())
		result, err := h.client().Upload(h.ctx, path, "alice")
		Expect(err).NotTo(HaveOccurred())

		before, err := h.shareRecord(h.nodes[0], result.FileID)
		Expect(err).NotTo(HaveOccurred())

		err = h.signAndPost(h.nodes[0], result.FileID, "forged-replacement-ciphertext")
		Expect(err).To(HaveOccurred())
		var apiErr *apierr.Error
		Expect(errors.As(err, &apiErr)).To(BeTrue())
		Expect(apiErr.Code).To(Equal(114))

		after, err := h.shareRecord(h.nodes[0], result.FileID)
		Expect(err).NotTo(HaveOccurred())
		Expect(after.EncShare).To(Equal(before.EncShare))
	})

	// S6: only the uploading owner may delete a file; deletion cascades
	// to every node and later lookups report the file gone.
	It("rejects delete from a non-owner and cascades delete for the owner", func() {
		h = newHarness(GinkgoT(), 5, 3)
		h.registerUser("alice", "correct horse battery staple")
		h.registerUser("mallory", "not-the-owner-1")

		path := writeUploadFile(GinkgoT().TempDir())
		result, err := h.client().Upload(h.ctx, path, "alice")
		Expect(err).NotTo(HaveOccurred())

		err = h.deleteFile(result.FileID, "mallory")
		Expect(err).To(HaveOccurred())
		var apiErr *apierr.Error
		Expect(errors.As(err, &apiErr)).To(BeTrue())
		Expect(apiErr.Code).To(Equal(108))

		Expect(h.deleteFile(result.FileID, "alice")).To(Succeed())

		_, err = h.detail(result.FileID)
		Expect(err).To(HaveOccurred())
		Expect(errors.As(err, &apiErr)).To(BeTrue())
		Expect(apiErr.Code).To(Equal(119))

		_, err = h.shareRecord(h.nodes[0], result.FileID)
		Expect(err).To(Equal(store.ErrNotFound))
	})
})

// corrupt mangles one character in the middle of an encoded blob without
// changing its length, so it no longer decodes or decrypts to the original
// share, simulating a tampered or bit-flipped share.
func corrupt(blob string) string {
	if blob == "" {
		return blob
	}
	b := []byte(blob)
	mid := len(b) / 2
	if strings.ContainsRune("0123456789abcdefABCDEF", rune(b[mid])) {
		b[mid] ^= 0x10
	} else {
		b[mid] = 'x'
	}
	return string(b)
}
