package rpc

import (
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"launchpad/native/sale"
)

// Server is the read-only HTTP front-end for sale state. Mutations enter the
// engine through the settlement substrate, not through HTTP.
type Server struct {
	log      *slog.Logger
	registry *sale.Registry
	ledger   *sale.Ledger
	engine   *sale.Engine
}

// NewServer wires a server over the sale components.
func NewServer(log *slog.Logger, registry *sale.Registry, ledger *sale.Ledger, engine *sale.Engine) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{log: log, registry: registry, ledger: ledger, engine: engine}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/v1/sale", func(sr chi.Router) {
		sr.Get("/tiers", s.handleTiers)
		sr.Get("/tiers/{id}", s.handleTier)
		sr.Get("/promos/{code}", s.handlePromo)
		sr.Get("/summary", s.handleSummary)
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

type tierView struct {
	ID                     string `json:"id"`
	Price                  string `json:"price"`
	MaxTotalPurchasable    string `json:"maxTotalPurchasable"`
	MaxAllocationPerWallet string `json:"maxAllocationPerWallet"`
	WhitelistRoot          string `json:"whitelistRoot"`
	BonusPercentage        uint32 `json:"bonusPercentage"`
	Halted                 bool   `json:"halted"`
	AllowPromoCode         bool   `json:"allowPromoCode"`
	AllowWalletPromoCode   bool   `json:"allowWalletPromoCode"`
	UnitsSold              string `json:"unitsSold"`
}

type promoView struct {
	Code               string `json:"code"`
	DiscountPercentage uint32 `json:"discountPercentage"`
	Owner              string `json:"owner"`
	Master             string `json:"master"`
	OwnerEarnings      string `json:"ownerEarnings"`
	MasterEarnings     string `json:"masterEarnings"`
	TotalPurchased     string `json:"totalPurchased"`
}

type summaryView struct {
	TotalUnitsSold        string            `json:"totalUnitsSold"`
	TotalRewardsUnclaimed string            `json:"totalRewardsUnclaimed"`
	VaultPaymentBalance   string            `json:"vaultPaymentBalance"`
	VaultSaleAssetBalance string            `json:"vaultSaleAssetBalance"`
	UnitsSoldByTier       map[string]string `json:"unitsSoldByTier"`
}

func (s *Server) tierView(tier *sale.Tier) tierView {
	sold := "0"
	if units, err := s.engine.UnitsSold(tier.ID); err == nil {
		sold = units.String()
	}
	return tierView{
		ID:                     tier.ID,
		Price:                  bigString(tier.Price),
		MaxTotalPurchasable:    bigString(tier.MaxTotalPurchasable),
		MaxAllocationPerWallet: bigString(tier.MaxAllocationPerWallet),
		WhitelistRoot:          hex.EncodeToString(tier.WhitelistRoot[:]),
		BonusPercentage:        tier.BonusPercentage,
		Halted:                 tier.Halted,
		AllowPromoCode:         tier.AllowPromoCode,
		AllowWalletPromoCode:   tier.AllowWalletPromoCode,
		UnitsSold:              sold,
	}
}

func (s *Server) handleTiers(w http.ResponseWriter, _ *http.Request) {
	ids, err := s.registry.TierIDs()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	views := make([]tierView, 0, len(ids))
	for _, id := range ids {
		tier, ok := s.registry.GetTier(id)
		if !ok {
			continue
		}
		views = append(views, s.tierView(tier))
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleTier(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tier, ok := s.registry.GetTier(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, http.StatusOK, s.tierView(tier))
}

func (s *Server) handlePromo(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	record, ok := s.ledger.GetPromoCode(code)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, http.StatusOK, promoView{
		Code:               record.Code,
		DiscountPercentage: record.DiscountPercentage,
		Owner:              hex.EncodeToString(record.Owner[:]),
		Master:             hex.EncodeToString(record.Master[:]),
		OwnerEarnings:      bigString(record.OwnerEarnings),
		MasterEarnings:     bigString(record.MasterEarnings),
		TotalPurchased:     bigString(record.TotalPurchased),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	summary, err := s.engine.Summary()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	byTier := make(map[string]string, len(summary.UnitsSoldByTier))
	for id, units := range summary.UnitsSoldByTier {
		byTier[id] = bigString(units)
	}
	s.writeJSON(w, http.StatusOK, summaryView{
		TotalUnitsSold:        bigString(summary.TotalUnitsSold),
		TotalRewardsUnclaimed: bigString(summary.TotalRewardsUnclaimed),
		VaultPaymentBalance:   bigString(summary.VaultPaymentBalance),
		VaultSaleAssetBalance: bigString(summary.VaultSaleAssetBalance),
		UnitsSoldByTier:       byTier,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.log.Error("request failed", "status", status, "error", err)
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
