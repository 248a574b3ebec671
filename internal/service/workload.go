package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"golang.org/x/crypto/hkdf"

	"github.com/rdivossen/iotedge/internal/ierrors"
	"github.com/rdivossen/iotedge/internal/provisioning"
	"github.com/rdivossen/iotedge/internal/router"
)

// WorkloadHandlers implements the workload API's signing and encryption
// endpoints against a module-scoped KeyStore, the same derived key store the
// Orchestrator builds during provisioning.
type WorkloadHandlers struct {
	Store provisioning.KeyStore
}

type signRequest struct {
	KeyID string `json:"keyId"`
	Data  string `json:"data"` // base64
}

type signResponse struct {
	Digest string `json:"digest"` // base64
}

type encryptRequest struct {
	Plaintext  string `json:"plaintext"`  // base64
	InitVector string `json:"initVector"` // accepted for wire compatibility; Encrypt generates its own random nonce
}

type encryptResponse struct {
	Ciphertext string `json:"ciphertext"` // base64
}

type decryptRequest struct {
	Ciphertext string `json:"ciphertext"` // base64
	InitVector string `json:"initVector"`
}

type decryptResponse struct {
	Plaintext string `json:"plaintext"` // base64
}

// Sign handles POST /modules/:name/genid/:generationid/sign.
func (h *WorkloadHandlers) Sign(w router.ResponseWriter, req *http.Request, params router.Parameters) error {
	name, ok := params.Get("name")
	if !ok {
		return ierrors.New(ierrors.NotFound, "missing module name")
	}

	var body signRequest
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	data, err := base64.StdEncoding.DecodeString(body.Data)
	if err != nil {
		return ierrors.Wrap(ierrors.InvalidProvisioning, err, "decoding sign payload")
	}

	key, err := h.Store.Get(name, "primary")
	if err != nil {
		return ierrors.Wrap(ierrors.ServiceError, err, "fetching module signing key")
	}
	digest, err := key.Sign(data)
	if err != nil {
		return ierrors.Wrap(ierrors.ServiceError, err, "signing")
	}
	return writeJSON(w, http.StatusOK, signResponse{Digest: base64.StdEncoding.EncodeToString(digest)})
}

// Encrypt handles POST /modules/:name/genid/:generationid/encrypt.
func (h *WorkloadHandlers) Encrypt(w router.ResponseWriter, req *http.Request, params router.Parameters) error {
	name, ok := params.Get("name")
	if !ok {
		return ierrors.New(ierrors.NotFound, "missing module name")
	}

	var body encryptRequest
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	plaintext, err := base64.StdEncoding.DecodeString(body.Plaintext)
	if err != nil {
		return ierrors.Wrap(ierrors.InvalidProvisioning, err, "decoding plaintext")
	}

	aead, err := h.aeadFor(name)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return ierrors.Wrap(ierrors.ServiceError, err, "generating nonce")
	}
	ciphertext := aead.Seal(nonce, nonce, plaintext, nil)
	return writeJSON(w, http.StatusOK, encryptResponse{Ciphertext: base64.StdEncoding.EncodeToString(ciphertext)})
}

// Decrypt handles POST /modules/:name/genid/:generationid/decrypt.
func (h *WorkloadHandlers) Decrypt(w router.ResponseWriter, req *http.Request, params router.Parameters) error {
	name, ok := params.Get("name")
	if !ok {
		return ierrors.New(ierrors.NotFound, "missing module name")
	}

	var body decryptRequest
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	blob, err := base64.StdEncoding.DecodeString(body.Ciphertext)
	if err != nil {
		return ierrors.Wrap(ierrors.InvalidProvisioning, err, "decoding ciphertext")
	}

	aead, err := h.aeadFor(name)
	if err != nil {
		return err
	}
	if len(blob) < aead.NonceSize() {
		return ierrors.New(ierrors.InvalidProvisioning, "ciphertext shorter than nonce")
	}
	nonce, sealed := blob[:aead.NonceSize()], blob[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return ierrors.Wrap(ierrors.ServiceError, err, "decrypting")
	}
	return writeJSON(w, http.StatusOK, decryptResponse{Plaintext: base64.StdEncoding.EncodeToString(plaintext)})
}

// aeadFor derives a per-module AES-GCM key from the module's signing key via
// HKDF, the same derivation shape the provisioner uses to hand out
// module-specific signing keys from one primary key.
func (h *WorkloadHandlers) aeadFor(module string) (cipher.AEAD, error) {
	key, err := h.Store.Get(module, "primary")
	if err != nil {
		return nil, ierrors.Wrap(ierrors.ServiceError, err, "fetching module encryption key")
	}
	seed, err := key.Sign([]byte(module + "/encrypt"))
	if err != nil {
		return nil, ierrors.Wrap(ierrors.ServiceError, err, "deriving encryption key")
	}

	derived := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, seed, nil, []byte("iotedge-workload-encrypt")), derived); err != nil {
		return nil, ierrors.Wrap(ierrors.ServiceError, err, "expanding encryption key")
	}
	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.ServiceError, err, "constructing cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.ServiceError, err, "constructing AEAD")
	}
	return aead, nil
}

// decodeJSON reads and decodes req's JSON body into v.
func decodeJSON(req *http.Request, v any) error {
	defer req.Body.Close()
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return ierrors.Wrap(ierrors.InvalidProvisioning, err, "decoding request body")
	}
	return nil
}
