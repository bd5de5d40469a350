package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"poolSnapshot/internal/model"
)

type optimizationTotals struct {
	TotalExpectedReward flexFloat `json:"totalExpectedReward"`
}

type optimizationDiff struct {
	IsWorthChanging bool       `json:"isWorthChanging"`
	RewardLoss      flexFloat  `json:"rewardLoss"`
	TotalDeviation  flexString `json:"totalDeviation"`
	Message         flexString `json:"message"`
}

type voteMeta struct {
	Votes []struct {
		ID    flexString `json:"id"`
		Title flexString `json:"title"`
	} `json:"votes"`
}

type optimizationPayload struct {
	ID           flexString          `json:"id"`
	VotingPower  flexFloat           `json:"votingPower"`
	Optimization *optimizationTotals `json:"optimization"`
	Diff         *optimizationDiff   `json:"diff"`
	ActiveVoted  json.RawMessage     `json:"activeVoted"`
	NewVoted     json.RawMessage     `json:"newVoted"`
	Meta         *voteMeta           `json:"meta"`
}

type optimizationResponse struct {
	Period        flexString            `json:"period"`
	VoteBefore    json.RawMessage       `json:"voteBefore"`
	Calculated    json.RawMessage       `json:"calculated"`
	Optimizations []optimizationPayload `json:"optimizations"`
	Summary       *optimizationTotals   `json:"summary"`
}

// VotionClient reads per-lockup vote optimizations.
type VotionClient struct {
	client *Client
	base   string
	logger *zap.Logger
}

func NewVotionClient(client *Client, base string, logger *zap.Logger) *VotionClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VotionClient{client: client, base: strings.TrimRight(base, "/"), logger: logger}
}

// OptimizationURL returns the endpoint for one lockup bucket.
func (v *VotionClient) OptimizationURL(lockupID string) string {
	return fmt.Sprintf("%s/%s/optimization", v.base, lockupID)
}

// FetchOptimization returns the captured state of one lockup bucket.
// A response without a period means the bucket holds no position and yields nil.
func (v *VotionClient) FetchOptimization(ctx context.Context, lockup model.Lockup) (*model.LockupSnapshot, error) {
	url := v.OptimizationURL(lockup.ID)
	var resp optimizationResponse
	if err := v.client.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	period, ok := resp.Period.Int()
	if !ok || period == 0 {
		v.logger.Debug("no position", zap.String("lockup", lockup.ID))
		return nil, nil
	}
	return resp.snapshot(lockup, period), nil
}

func (r optimizationResponse) snapshot(lockup model.Lockup, period int) *model.LockupSnapshot {
	out := &model.LockupSnapshot{
		Type:          lockup.Type,
		Duration:      lockup.Duration,
		Multiplier:    lockup.Multiplier,
		Period:        period,
		VoteBefore:    r.VoteBefore,
		Calculated:    r.Calculated,
		Optimizations: make([]model.Optimization, 0, len(r.Optimizations)),
	}
	if len(r.Optimizations) > 0 {
		out.VotingPower = float64(r.Optimizations[0].VotingPower)
	}
	if r.Summary != nil {
		out.TotalExpectedReward = float64(r.Summary.TotalExpectedReward)
	}

	for _, opt := range r.Optimizations {
		o := model.Optimization{
			Bucket:      opt.ID.Value,
			VotingPower: float64(opt.VotingPower),
			Deviation:   "0",
			ActiveVoted: rawOr(opt.ActiveVoted, "{}"),
			NewVoted:    rawOr(opt.NewVoted, "{}"),
			Pools:       []model.VotePool{},
		}
		if opt.Optimization != nil {
			o.ExpectedRewards = float64(opt.Optimization.TotalExpectedReward)
		}
		if opt.Diff != nil {
			o.IsWorthChanging = opt.Diff.IsWorthChanging
			o.PotentialGain = float64(opt.Diff.RewardLoss)
			if d := opt.Diff.TotalDeviation.Value; d != "" {
				o.Deviation = d
			}
			o.Message = opt.Diff.Message.Value
		}
		if opt.Meta != nil {
			for _, vote := range opt.Meta.Votes {
				o.Pools = append(o.Pools, model.VotePool{Address: vote.ID.Value, Name: vote.Title.Value})
			}
		}
		out.Optimizations = append(out.Optimizations, o)
	}
	return out
}
