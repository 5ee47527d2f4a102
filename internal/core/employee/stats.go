package employee

import (
	"context"
	"time"
)

const (
	recentHireWindowDays = 30
	growthMonths         = 6
)

// MonthCount は暦月ごとの作成件数です。Month は "2006-01" 形式です。
type MonthCount struct {
	Month string
	Count int
}

// Statistics は呼び出し時点で集計した社員統計です。
type Statistics struct {
	TotalActive   int
	TotalInactive int
	Departments   []Department
	Locations     []LocationCount
	RecentHires   int
	MonthlyGrowth []MonthCount
	GeneratedAt   time.Time
}

// Statistics は統計を毎回集計し直して返します。
// 月次推移は当月を含む直近 6 暦月 (UTC) を古い順に並べ、在籍状態に関わらず created_at で数えます。
func (q *Query) Statistics(ctx context.Context) (*Statistics, error) {
	now := q.clock.Now().UTC()

	active, inactive, err := q.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	departments, err := q.repo.ActiveDepartments(ctx)
	if err != nil {
		return nil, err
	}

	locations, err := q.repo.ActiveLocations(ctx)
	if err != nil {
		return nil, err
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	recent, err := q.repo.CountActiveHiredBetween(ctx, today.AddDate(0, 0, -recentHireWindowDays), today)
	if err != nil {
		return nil, err
	}

	growth, err := q.monthlyGrowth(ctx, now)
	if err != nil {
		return nil, err
	}

	if departments == nil {
		departments = []Department{}
	}
	if locations == nil {
		locations = []LocationCount{}
	}

	return &Statistics{
		TotalActive:   active,
		TotalInactive: inactive,
		Departments:   departments,
		Locations:     locations,
		RecentHires:   recent,
		MonthlyGrowth: growth,
		GeneratedAt:   now,
	}, nil
}

func (q *Query) monthlyGrowth(ctx context.Context, now time.Time) ([]MonthCount, error) {
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	growth := make([]MonthCount, 0, growthMonths)
	for i := growthMonths - 1; i >= 0; i-- {
		start := current.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)

		count, err := q.repo.CountCreatedBetween(ctx, start, end)
		if err != nil {
			return nil, err
		}
		growth = append(growth, MonthCount{Month: start.Format("2006-01"), Count: count})
	}
	return growth, nil
}
