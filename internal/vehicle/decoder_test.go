package vehicle_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"dealerops.dev/storyline/internal/vehicle"
)

var _ = Describe("VPICDecoder", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("decodes attributes from the first result", func() {
		var gotPath, gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotQuery = r.URL.RawQuery
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"Count": 1,
				"Results": [{
					"ModelYear": "2022",
					"Make": "FORD",
					"Model": "F-150",
					"Trim": "XLT",
					"Series": "W",
					"BodyClass": "Pickup",
					"BodyCabType": "Crew/Super Crew/Crew Max",
					"EngineModel": "EcoBoost"
				}]
			}`))
		}))
		defer srv.Close()

		decoder := vehicle.NewVPICDecoder(srv.URL)
		attrs, err := decoder.Decode(ctx, "1FTFW1E50NFA00001")

		Expect(err).NotTo(HaveOccurred())
		Expect(gotPath).To(Equal("/vehicles/DecodeVinValues/1FTFW1E50NFA00001"))
		Expect(gotQuery).To(Equal("format=json"))
		Expect(attrs.Year).To(Equal("2022"))
		Expect(attrs.Model).To(Equal("F-150"))
		Expect(attrs.Cab).To(Equal("Crew/Super Crew/Crew Max"))
		Expect(attrs.Engine).To(Equal("EcoBoost"))
	})

	It("fails on a non-2xx status", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		decoder := vehicle.NewVPICDecoder(srv.URL)
		_, err := decoder.Decode(ctx, "1FTFW1E50NFA00001")

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unexpected status 502"))
	})

	It("fails when the result list is empty", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"Count": 0, "Results": []}`))
		}))
		defer srv.Close()

		decoder := vehicle.NewVPICDecoder(srv.URL)
		_, err := decoder.Decode(ctx, "1FTFW1E50NFA00001")

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("no results"))
	})
})
