// Package dhttpapptest provides test helpers for dhttpapp applications.
//
// It constructs the identical DI graph as [dhttpapp.NewApp] but uses
// [fxtest.App] which fails the test immediately on DI errors.
//
// Example:
//
//	dhttpapptest.SetBaseEnv(t, 18081).RoutesFile(routesPath)
//	app := dhttpapptest.New[TestEnv](t, cols)
//	app.RequireStart()
//	t.Cleanup(app.RequireStop)
package dhttpapptest

import (
	"testing"

	"github.com/advdv/dhttp/dhttpapp"
	"go.uber.org/fx/fxtest"
)

// App embeds *fxtest.App for testing dhttpapp applications.
type App struct {
	*fxtest.App
}

// New creates a test app with the same DI graph as [dhttpapp.NewApp].
func New[E dhttpapp.Environment](t testing.TB, collections any, opts ...dhttpapp.Option) *App {
	return &App{App: fxtest.New(t, dhttpapp.FxOptions[E](collections, opts...)...)}
}
