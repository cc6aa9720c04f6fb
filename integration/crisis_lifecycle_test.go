package integration

import (
	"fmt"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// severityRank orders severities for the escalation assertions.
var severityRank = map[string]int{
	"UNKNOWN": 0, "LOW": 1, "MEDIUM": 2, "HIGH": 3, "CRITICAL": 4,
}

var _ = Describe("Crisis Correlation Lifecycle", Ordered, func() {
	var (
		hookPath   string
		hookSecret string
		endpointID string
		crisisID   string
	)

	BeforeAll(func() {
		resp, err := doRequest("GET", "/healthz", nil)
		if err != nil {
			Skip(fmt.Sprintf("Server not reachable at %s: %v", getBaseURL(), err))
		}
		resp.Body.Close()

		payload := map[string]interface{}{
			"name":        "Lifecycle Test Feed",
			"source_kind": "generic",
		}
		createResp, err := doRequest("POST", "/v1/endpoints", payload)
		Expect(err).NotTo(HaveOccurred())
		defer createResp.Body.Close()
		Expect(createResp.StatusCode).To(Equal(http.StatusCreated))

		var result map[string]interface{}
		Expect(parseResponse(createResp, &result)).To(Succeed())
		data := result["data"].(map[string]interface{})
		hookPath = data["path"].(string)
		hookSecret = data["secret"].(string)
		endpointID = data["endpoint"].(map[string]interface{})["id"].(string)
	})

	AfterAll(func() {
		if endpointID != "" {
			_, _ = doRequest("DELETE", "/v1/endpoints/"+endpointID, nil)
		}
	})

	// waitForSuccess polls a webhook event until it reaches SUCCESS.
	waitForSuccess := func(webhookEventID string) {
		Eventually(func() string {
			resp, err := doRequest("GET", "/v1/webhook-events/"+webhookEventID, nil)
			if err != nil {
				return ""
			}
			defer resp.Body.Close()

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
	}

	deliver := func(payload string) string {
		resp, err := doSignedHook(hookPath, hookSecret, []byte(payload))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusAccepted))

		var result map[string]interface{}
		Expect(parseResponse(resp, &result)).To(Succeed())
		return result["data"].(map[string]interface{})["webhook_event_id"].(string)
	}

	It("should open a crisis from the first earthquake report", func() {
		id := deliver(`{"title":"Major earthquake strikes near Herat","description":"A severe earthquake has caused significant damage and casualties in the Herat region","location":"Herat"}`)
		waitForSuccess(id)

		Eventually(func() int {
			resp, err := doRequest("GET", "/v1/crises?type=EARTHQUAKE", nil)
			if err != nil {
				return 0
			}
			defer resp.Body.Close()

			var result map[string]interface{}
			if parseResponse(resp, &result) != nil {
				return 0
			}
			data, _ := result["data"].([]interface{})
			for _, item := range data {
				crisis := item.(map[string]interface{})
				if crisis["location"] == "Herat" {
					crisisID = crisis["id"].(string)
					return 1
				}
			}
			return 0
		}, 10*time.Second, 200*time.Millisecond).Should(Equal(1))
	})

	It("should correlate a second report into the same crisis", func() {
		id := deliver(`{"title":"Catastrophic aftershock in Herat province","description":"Mass casualties reported after a devastating aftershock leveled buildings in Herat","location":"Herat"}`)
		waitForSuccess(id)

		Eventually(func() int {
			resp, err := doRequest("GET", "/v1/crises/"+crisisID+"/events", nil)
			if err != nil {
				return 0
			}
			defer resp.Body.Close()

			var result map[string]interface{}
			if parseResponse(resp, &result) != nil {
				return 0
			}
			data, _ := result["data"].([]interface{})
			return len(data)
		}, 10*time.Second, 200*time.Millisecond).Should(BeNumerically(">=", 2))
	})

	It("should have escalated the crisis severity", func() {
		resp, err := doRequest("GET", "/v1/crises/"+crisisID, nil)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var result map[string]interface{}
		Expect(parseResponse(resp, &result)).To(Succeed())

		data := result["data"].(map[string]interface{})
		severity := data["severity"].(string)
		Expect(severityRank[severity]).To(BeNumerically(">=", severityRank["HIGH"]))
	})
})
