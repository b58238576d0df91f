package ops

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/snapper/internal/config"
	"github.com/hpungsan/snapper/internal/errors"
)

func TestResolve_DefaultPattern(t *testing.T) {
	cfg := config.DefaultConfig()

	out, err := Resolve(cfg, ResolveInput{
		FeatureFile: "features/login.feature",
		StepLine:    12,
		Timestamp:   1710219423,
	})
	require.NoError(t, err)
	require.Equal(t, "1710219423.login.feature_12.html", out.Filename)
	require.Equal(t, config.DefaultFilenamePattern, out.Pattern)

	require.Len(t, out.Tokens, 4)
	require.Equal(t, TokenValue{Raw: "{datetime:U}", Kind: "datetime", Value: "1710219423", Resolved: true}, out.Tokens[0])
	require.Equal(t, "feature", out.Tokens[1].Kind)
	require.Equal(t, "12", out.Tokens[2].Value)
	require.Equal(t, "html", out.Tokens[3].Value)
}

func TestResolve_CustomPatternWithURL(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TokenHost = "example.org"

	out, err := Resolve(cfg, ResolveInput{
		Pattern:   "{url_domain}-{step_name}",
		Ext:       "png",
		StepText:  `I see "Welcome"`,
		URL:       "https://staging.internal:8443/home",
		Timestamp: 1,
	})
	require.NoError(t, err)
	require.Equal(t, "example_org-I_see_Welcome.png", out.Filename)
	require.Equal(t, "{url_domain}-{step_name}.{ext}", out.Pattern)
}

func TestResolve_FailurePatternWins(t *testing.T) {
	cfg := config.DefaultConfig()

	out, err := Resolve(cfg, ResolveInput{
		Pattern:     "ignored",
		Failure:     true,
		FeatureFile: "cart.feature",
		StepLine:    2,
		Timestamp:   100,
	})
	require.NoError(t, err)
	require.Equal(t, "100.failed_cart.feature_2.html", out.Filename)
}

func TestResolve_UnresolvedTokensReported(t *testing.T) {
	cfg := config.DefaultConfig()

	out, err := Resolve(cfg, ResolveInput{Pattern: "{url_path}-{nope}", Timestamp: 5})
	require.NoError(t, err)
	require.Equal(t, "{url_path}-{nope}.html", out.Filename)
	for _, tok := range out.Tokens[:2] {
		require.False(t, tok.Resolved, tok.Raw)
	}
	require.Equal(t, "unknown", out.Tokens[1].Kind)
}

func TestResolve_Errors(t *testing.T) {
	cfg := config.DefaultConfig()

	_, err := Resolve(cfg, ResolveInput{Pattern: "{url}", URL: "http:///example.com"})
	require.True(t, errors.Is(err, errors.ErrInvalidURL), "got %v", err)

	_, err = Resolve(cfg, ResolveInput{Timestamp: -5})
	require.True(t, errors.Is(err, errors.ErrInvalidTimestamp), "got %v", err)

	_, err = Resolve(cfg, ResolveInput{StepLine: -1})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
}
