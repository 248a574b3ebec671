package provisioning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rdivossen/iotedge/internal/ierrors"
)

// HTTPRegistrationClient speaks the minimal registration-service request and
// response this core needs to produce and consume; the cloud-side
// provisioning protocol beyond that shape is out of scope. Register sends one
// registration request and takes the assignment from that response; it does
// not poll, and returns whatever hub, device id and status that one response
// carries.
type HTTPRegistrationClient struct {
	HTTPClient *http.Client
}

// NewHTTPRegistrationClient returns a client with a bounded request timeout.
func NewHTTPRegistrationClient() *HTTPRegistrationClient {
	return &HTTPRegistrationClient{HTTPClient: &http.Client{Timeout: 30 * time.Second}}
}

type registrationRequest struct {
	RegistrationID string `json:"registrationId"`
	TPM            struct {
		EndorsementKey string `json:"endorsementKey"`
		StorageRootKey string `json:"storageRootKey"`
	} `json:"tpm"`
}

type registrationResponse struct {
	Status      string `json:"status"`
	AssignedHub string `json:"assignedHub"`
	DeviceID    string `json:"deviceId"`
	IdentityKey string `json:"identityKey"`
}

// Register implements RegistrationClient.
func (c *HTTPRegistrationClient) Register(ctx context.Context, apiVersion, globalEndpoint, scopeID, registrationID string, ek, srk []byte) (*Result, []byte, error) {
	reqBody := registrationRequest{RegistrationID: registrationID}
	reqBody.TPM.EndorsementKey = base64.StdEncoding.EncodeToString(ek)
	reqBody.TPM.StorageRootKey = base64.StdEncoding.EncodeToString(srk)

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, nil, err
	}

	endpoint := fmt.Sprintf("%s/%s/registrations/%s/register?api-version=%s",
		globalEndpoint, url.PathEscape(scopeID), url.PathEscape(registrationID), apiVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, ierrors.Wrap(ierrors.ProvisioningFailed, err, "calling registration service")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, nil, ierrors.New(ierrors.ProvisioningFailed, fmt.Sprintf("registration service returned %d", resp.StatusCode))
	}

	var body registrationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, nil, ierrors.Wrap(ierrors.ProvisioningFailed, err, "decoding registration response")
	}

	blob, err := base64.StdEncoding.DecodeString(body.IdentityKey)
	if err != nil {
		return nil, nil, ierrors.Wrap(ierrors.ProvisioningFailed, err, "decoding identity key blob")
	}

	return &Result{HubName: body.AssignedHub, DeviceID: body.DeviceID, Status: body.Status}, blob, nil
}
