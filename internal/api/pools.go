package api

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"poolSnapshot/internal/model"
)

type usdValue struct {
	USD flexFloat `json:"usd"`
}

type poolVolume struct {
	Day  *usdValue `json:"24h"`
	Week *usdValue `json:"7d"`
}

type poolAPR struct {
	Week flexFloat `json:"7d"`
}

type poolReserve struct {
	Amount flexString `json:"amount"`
}

type poolPayload struct {
	ID         flexString    `json:"id"`
	Address    flexString    `json:"address"`
	TVL        *usdValue     `json:"tvl"`
	Volume     *poolVolume   `json:"volume"`
	APR        *poolAPR      `json:"apr"`
	Reserves   []poolReserve `json:"reserves"`
	TotalShare flexString    `json:"totalShare"`
}

type poolsResponse struct {
	Pools json.RawMessage `json:"pools"`
}

// PoolsClient reads the current pool list.
type PoolsClient struct {
	client *Client
	url    string
	logger *zap.Logger
}

func NewPoolsClient(client *Client, url string, logger *zap.Logger) *PoolsClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoolsClient{client: client, url: url, logger: logger}
}

// FetchPools returns one record per pool stamped with the UTC date and time of now.
func (p *PoolsClient) FetchPools(ctx context.Context, now time.Time) ([]model.PoolRecord, error) {
	var resp poolsResponse
	if err := p.client.GetJSON(ctx, p.url, &resp); err != nil {
		return nil, err
	}

	raw := resp.Pools
	if len(raw) == 0 || raw[0] != '[' {
		return nil, &ShapeError{URL: p.url, Field: "pools"}
	}
	var payloads []poolPayload
	if err := json.Unmarshal(raw, &payloads); err != nil {
		return nil, &FetchError{URL: p.url, Err: err}
	}

	utc := now.UTC()
	date := utc.Format("2006-01-02")
	clock := utc.Format("15:04:05")

	records := make([]model.PoolRecord, 0, len(payloads))
	for _, pl := range payloads {
		rec := pl.record(date, clock)
		for field, amount := range map[string]string{"reserve_0": rec.Reserve0, "reserve_1": rec.Reserve1, "total_share": rec.TotalShare} {
			if !integerLike(amount) {
				p.logger.Debug("non-integer amount kept as sent", zap.String("pool_id", rec.PoolID), zap.String("field", field), zap.String("value", amount))
			}
		}
		records = append(records, rec)
	}
	p.logger.Debug("pools fetched", zap.Int("pools", len(records)))
	return records, nil
}

func (pl poolPayload) record(date, clock string) model.PoolRecord {
	r := model.PoolRecord{
		Date:        date,
		Time:        clock,
		PoolID:      pl.ID.Value,
		PoolAddress: pl.Address.Value,
		Reserve0:    "0",
		Reserve1:    "0",
		TotalShare:  rawAmount(pl.TotalShare.Value),
	}
	if pl.TVL != nil {
		r.TVLUSD = float64(pl.TVL.USD)
	}
	if pl.Volume != nil {
		if pl.Volume.Day != nil {
			r.Volume24hUSD = float64(pl.Volume.Day.USD)
		}
		if pl.Volume.Week != nil {
			r.Volume7dUSD = float64(pl.Volume.Week.USD)
		}
	}
	if pl.APR != nil {
		r.APR7d = float64(pl.APR.Week)
	}
	if len(pl.Reserves) > 0 {
		r.Reserve0 = rawAmount(pl.Reserves[0].Amount.Value)
	}
	if len(pl.Reserves) > 1 {
		r.Reserve1 = rawAmount(pl.Reserves[1].Amount.Value)
	}
	return r
}
