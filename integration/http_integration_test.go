package integration

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// getBaseURL returns the base URL for API calls.
// Uses RELIEFWATCH_BASE_URL env var if set (for container tests),
// otherwise defaults to localhost:8080.
func getBaseURL() string {
	if url := os.Getenv("RELIEFWATCH_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

// httpClient creates an HTTP client with sensible defaults.
func httpClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
	}
}

// doRequest performs a JSON HTTP request and returns the response.
func doRequest(method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	}

	url := getBaseURL() + path
	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return httpClient().Do(req)
}

// doSignedHook delivers a raw payload to a hook path with an HMAC-SHA256
// signature header computed from the endpoint secret.
func doSignedHook(path, secret string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequest("POST", getBaseURL()+"/hooks/"+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	req.Header.Set("X-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	req.Header.Set("Content-Type", "application/json")

	return httpClient().Do(req)
}

// parseResponse parses JSON response into target.
func parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// cleanupTestData removes created endpoints.
func cleanupTestData(endpointIDs []string) {
	for _, id := range endpointIDs {
		_, _ = doRequest("DELETE", "/v1/endpoints/"+id, nil)
	}
}

var _ = Describe("HTTP Integration Tests", Ordered, func() {
	var (
		endpointID         string
		hookPath           string
		hookSecret         string
		webhookEventID     string
		createdEndpointIDs []string
	)

	BeforeAll(func() {
		// Check if the server is reachable
		resp, err := doRequest("GET", "/healthz", nil)
		if err != nil {
			Skip(fmt.Sprintf("Server not reachable at %s: %v", getBaseURL(), err))
		}
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	AfterAll(func() {
		cleanupTestData(createdEndpointIDs)
	})

	Describe("Health Check", func() {
		It("should return healthy status", func() {
			resp, err := doRequest("GET", "/healthz", nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Describe("Endpoint Registry API", func() {
		It("should register an endpoint and return path and secret once", func() {
			payload := map[string]interface{}{
				"name":        "HTTP Test Feed",
				"source_kind": "generic",
				"filter": map[string]interface{}{
					"keywords": []string{"flood"},
				},
			}

			resp, err := doRequest("POST", "/v1/endpoints", payload)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data, ok := result["data"].(map[string]interface{})
			Expect(ok).To(BeTrue())

			hookPath = data["path"].(string)
			hookSecret = data["secret"].(string)
			Expect(hookPath).NotTo(BeEmpty())
			Expect(hookSecret).NotTo(BeEmpty())

			endpoint := data["endpoint"].(map[string]interface{})
			endpointID = endpoint["id"].(string)
			createdEndpointIDs = append(createdEndpointIDs, endpointID)
		})

		It("should get the created endpoint without exposing the secret", func() {
			resp, err := doRequest("GET", "/v1/endpoints/"+endpointID, nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data := result["data"].(map[string]interface{})
			Expect(data["name"]).To(Equal("HTTP Test Feed"))
			Expect(data).NotTo(HaveKey("secret"))
		})

		It("should list endpoints", func() {
			resp, err := doRequest("GET", "/v1/endpoints", nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data, ok := result["data"].([]interface{})
			Expect(ok).To(BeTrue())
			Expect(len(data)).To(BeNumerically(">=", 1))
		})
	})

	Describe("Webhook Receipt and Crisis Creation", func() {
		It("should reject a delivery with a bad signature", func() {
			resp, err := doSignedHook(hookPath, "not-the-secret", []byte(`{"title":"x"}`))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("should accept a signed delivery", func() {
			payload := []byte(`{"title":"Severe flooding in Jonglei state","description":"Flood waters have displaced thousands of residents in an emergency situation","location":"Jonglei"}`)

			resp, err := doSignedHook(hookPath, hookSecret, payload)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data := result["data"].(map[string]interface{})
			webhookEventID = data["webhook_event_id"].(string)
			Expect(webhookEventID).NotTo(BeEmpty())
			Expect(data["accepted"]).To(BeTrue())
		})

		It("should process the delivery to SUCCESS", func() {
			Eventually(func() string {
				resp, err := doRequest("GET", "/v1/webhook-events/"+webhookEventID, nil)
				if err != nil {
					return ""
				}
				defer resp.Body.Close()

				if resp.StatusCode != http.StatusOK {
					return ""
				}

				var result map[string]interface{}
				if parseResponse(resp, &result) != nil {
					return ""
				}

				data := result["data"].(map[string]interface{})
				if data["status"] == nil {
					return ""
				}
				return data["status"].(string)
			}, 10*time.Second, 200*time.Millisecond).Should(Equal("SUCCESS"))
		})

		It("should have created a flood crisis", func() {
			var data []interface{}
			Eventually(func() int {
				resp, err := doRequest("GET", "/v1/crises?type=FLOOD", nil)
				if err != nil {
					return 0
				}
				defer resp.Body.Close()

				var result map[string]interface{}
				if parseResponse(resp, &result) != nil {
					return 0
				}

				data, _ = result["data"].([]interface{})
				return len(data)
			}, 10*time.Second, 200*time.Millisecond).Should(BeNumerically(">=", 1))

			crisis := data[0].(map[string]interface{})
			Expect(crisis["type"]).To(Equal("FLOOD"))
			Expect(crisis["status"]).To(Equal("EMERGING"))
		})

		It("should skip a delivery with no matching keywords", func() {
			payload := []byte(`{"title":"Quarterly budget meeting","description":"Agenda attached"}`)

			resp, err := doSignedHook(hookPath, hookSecret, payload)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())
			id := result["data"].(map[string]interface{})["webhook_event_id"].(string)

			Eventually(func() string {
				weResp, err := doRequest("GET", "/v1/webhook-events/"+id, nil)
				if err != nil {
					return ""
				}
				defer weResp.Body.Close()

				var weResult map[string]interface{}
				if parseResponse(weResp, &weResult) != nil {
					return ""
				}

				data := weResult["data"].(map[string]interface{})
				if data["status"] == nil {
					return ""
				}
				return data["status"].(string)
			}, 10*time.Second, 200*time.Millisecond).Should(Equal("SKIPPED"))
		})
	})

	Describe("Jobs API", func() {
		It("should list background jobs", func() {
			resp, err := doRequest("GET", "/v1/jobs", nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data, ok := result["data"].([]interface{})
			Expect(ok).To(BeTrue())
			Expect(len(data)).To(Equal(5))
		})

		It("should run the backlog sweep on demand", func() {
			resp, err := doRequest("POST", "/v1/jobs/backlog/run", nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("should reject an unknown job", func() {
			resp, err := doRequest("POST", "/v1/jobs/compact/run", nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Subscription flow", func() {
		var verificationToken string

		It("should create a subscription", func() {
			payload := map[string]interface{}{
				"email":        "integration@example.org",
				"cadence":      "IMMEDIATE",
				"crisis_types": []string{"FLOOD"},
				"min_severity": "MEDIUM",
			}

			resp, err := doRequest("POST", "/v1/subscriptions", payload)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data := result["data"].(map[string]interface{})
			verificationToken = data["verification_token"].(string)
			Expect(verificationToken).NotTo(BeEmpty())
		})

		It("should verify the subscription by token", func() {
			resp, err := doRequest("GET", "/v1/subscriptions/verify/"+verificationToken, nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("should run the immediate notification sweep", func() {
			resp, err := doRequest("POST", "/v1/jobs/immediate/run", nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())
		})
	})
})
