package service

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"go-gin-gorm-blog/internal/core/apperr"
	"go-gin-gorm-blog/internal/domain"
	"go-gin-gorm-blog/internal/repo"
)

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type Stats struct {
	TotalBlogs      int64              `json:"total_blogs"`
	TotalLikes      int64              `json:"total_likes"`
	TotalComments   int64              `json:"total_comments"`
	TotalCategories int                `json:"total_categories"`
	Categories      []repo.CategoryRow `json:"categories"`
	Blogs           []repo.BlogRow     `json:"blogs"`
	Users           []repo.UserRow     `json:"users"`
	DailyBlogs      []DayCount         `json:"daily_blogs"`
	MonthlyBlogs    []MonthCount       `json:"monthly_blogs"`
	DailyUsers      []DayCount         `json:"daily_users"`
	MonthlyUsers    []MonthCount       `json:"monthly_users"`
}

type StatsService struct{ stats *repo.StatsRepo }

func NewStatsService(stats *repo.StatsRepo) *StatsService { return &StatsService{stats: stats} }

// Collect 并发跑各项统计
func (s *StatsService) Collect(ctx context.Context, caller domain.Caller) (Stats, error) {
	if err := requireAdmin(caller, "You do not have permission to perform this action."); err != nil {
		return Stats{}, err
	}
	var (
		out                 Stats
		blogTimes, userTime []time.Time
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { out.TotalBlogs, err = s.stats.CountBlogs(gctx); return })
	g.Go(func() (err error) { out.TotalLikes, err = s.stats.CountLikes(gctx); return })
	g.Go(func() (err error) { out.TotalComments, err = s.stats.CountComments(gctx); return })
	g.Go(func() (err error) { out.Categories, err = s.stats.Categories(gctx); return })
	g.Go(func() (err error) { out.Blogs, err = s.stats.Blogs(gctx); return })
	g.Go(func() (err error) { out.Users, err = s.stats.Users(gctx); return })
	g.Go(func() (err error) { blogTimes, err = s.stats.BlogCreatedTimes(gctx); return })
	g.Go(func() (err error) { userTime, err = s.stats.UserCreatedTimes(gctx); return })
	if err := g.Wait(); err != nil {
		return Stats{}, apperr.FromStore("collect stats", err)
	}

	out.TotalCategories = len(out.Categories)
	out.DailyBlogs, out.MonthlyBlogs = bucket(blogTimes)
	out.DailyUsers, out.MonthlyUsers = bucket(userTime)
	if out.Categories == nil {
		out.Categories = []repo.CategoryRow{}
	}
	if out.Blogs == nil {
		out.Blogs = []repo.BlogRow{}
	}
	if out.Users == nil {
		out.Users = []repo.UserRow{}
	}
	return out, nil
}

// bucket 按 UTC 日/月分组，升序
func bucket(ts []time.Time) ([]DayCount, []MonthCount) {
	days := map[string]int{}
	months := map[string]int{}
	for _, t := range ts {
		t = t.UTC()
		days[t.Format("2006-01-02")]++
		months[t.Format("2006-01")]++
	}
	daily := make([]DayCount, 0, len(days))
	for d, n := range days {
		daily = append(daily, DayCount{Date: d, Count: n})
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })

	monthly := make([]MonthCount, 0, len(months))
	for m, n := range months {
		monthly = append(monthly, MonthCount{Month: m, Count: n})
	}
	sort.Slice(monthly, func(i, j int) bool { return monthly[i].Month < monthly[j].Month })
	return daily, monthly
}
