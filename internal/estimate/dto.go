package estimate

import (
	"github.com/frahmantamala/tdy-voucher/internal/lineitem"
	"github.com/frahmantamala/tdy-voucher/internal/trip"
)

type EstimateRequest struct {
	Trip  trip.TripDTO       `json:"trip"`
	Items []lineitem.RawItem `json:"items"`
}

type EstimateResponse struct {
	Trip   trip.Summary `json:"trip"`
	Totals Totals       `json:"totals"`
}
