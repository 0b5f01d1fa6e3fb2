package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cad-auth/internal/models"
	"cad-auth/internal/obs"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultOverseerKey = "01"
	DefaultSentinel    = "0"
)

// DepartmentResolver визначає підрозділи користувача за його Discord ID
type DepartmentResolver interface {
	Resolve(ctx context.Context, userID string) Resolution
}

// LookupResult - результат перевірки одного ключа сховища
type LookupResult struct {
	Key    string
	Member bool
	Err    error
}

// Resolution - підсумок резолвінгу підрозділів
type Resolution struct {
	Departments models.DepartmentList
	Overseer    bool
	Failures    []LookupResult
}

// departmentResolver реалізація DepartmentResolver
type departmentResolver struct {
	store       MembershipStore
	overseerKey string
	sentinel    string
}

// NewDepartmentResolver створює новий резолвер підрозділів
func NewDepartmentResolver(store MembershipStore, overseerKey, sentinel string) DepartmentResolver {
	if overseerKey == "" {
		overseerKey = DefaultOverseerKey
	}
	if sentinel == "" {
		sentinel = DefaultSentinel
	}
	return &departmentResolver{
		store:       store,
		overseerKey: overseerKey,
		sentinel:    sentinel,
	}
}

// Resolve повертає підрозділи користувача. Помилки сховища ніколи не переривають вхід:
// ключ, який не вдалося прочитати, вважається таким, що не містить користувача.
func (r *departmentResolver) Resolve(ctx context.Context, userID string) Resolution {
	var res Resolution

	overseer := r.lookup(ctx, r.overseerKey, userID)
	if overseer.Err != nil {
		res.Failures = append(res.Failures, overseer)
		r.report(userID, overseer)
	}
	if overseer.Member {
		res.Departments = models.AllDepartments()
		res.Overseer = true
		logrus.WithField("uid", userID).Info("Overseer resolved to all departments")
		return res
	}

	results := make([]LookupResult, len(models.Departments))
	g, gctx := errgroup.WithContext(ctx)
	for i, dept := range models.Departments {
		g.Go(func() error {
			results[i] = r.lookup(gctx, dept.Key(), userID)
			return nil
		})
	}
	_ = g.Wait()

	for i, result := range results {
		if result.Err != nil {
			res.Failures = append(res.Failures, result)
			r.report(userID, result)
			continue
		}
		if result.Member {
			res.Departments = append(res.Departments, models.Departments[i])
		}
	}

	if len(res.Departments) == 0 {
		res.Departments = models.NoDepartment()
	}

	logrus.WithFields(logrus.Fields{
		"uid":         userID,
		"departments": strings.Join(res.Departments.Codes(), ","),
		"failures":    len(res.Failures),
	}).Info("Departments resolved")

	return res
}

func (r *departmentResolver) lookup(ctx context.Context, key, userID string) LookupResult {
	result := LookupResult{Key: key}

	raw, found, err := r.store.Get(ctx, key)
	if err != nil {
		result.Err = err
		return result
	}
	if !found {
		return result
	}

	members, skipped, err := parseMembers(raw)
	if err != nil {
		result.Err = fmt.Errorf("%w: key %s: %v", ErrStoreLookup, key, err)
		return result
	}
	if skipped > 0 {
		logrus.WithFields(logrus.Fields{
			"key":     key,
			"skipped": skipped,
		}).Warn("Membership list has entries that are neither strings nor numbers")
	}

	for _, id := range members {
		if id == r.sentinel {
			continue
		}
		if id == userID {
			result.Member = true
			break
		}
	}
	return result
}

func (r *departmentResolver) report(userID string, result LookupResult) {
	obs.LookupErrors.WithLabelValues(result.Key).Inc()
	logrus.WithError(result.Err).WithFields(logrus.Fields{
		"uid": userID,
		"key": result.Key,
	}).Warn("Membership lookup failed, treating key as non-member")
}

// parseMembers декодує JSON масив ID. Числові ID приводяться до рядків,
// інші елементи (null, bool, об'єкти) пропускаються і рахуються в skipped.
// Помилкою є лише значення, яке не є JSON масивом.
func parseMembers(raw string) (ids []string, skipped int, err error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var items []interface{}
	if err := dec.Decode(&items); err != nil {
		return nil, 0, fmt.Errorf("membership value is not a JSON array: %w", err)
	}

	ids = make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			ids = append(ids, v)
		case json.Number:
			ids = append(ids, v.String())
		default:
			skipped++
		}
	}
	return ids, skipped, nil
}
