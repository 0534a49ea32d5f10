package config

type EnvVariables struct {
	DatabaseUrl           string `env:"DATABASE_URL"`
	GitHubAppId           string `env:"GITHUB_APP_ID"`
	GitHubAppPrivateKey   string `env:"GITHUB_APP_PRIVATE_KEY"`
	GitHubAppClientId     string `env:"GITHUB_APP_CLIENT_ID"`
	GitHubAppClientSecret string `env:"GITHUB_APP_CLIENT_SECRET"`
	GitHubWebhookSecret   string `env:"GITHUB_WEBHOOK_SECRET"`
	JwtPublicKey          string `env:"JWT_PUBLIC_KEY"`
	WebhookSecret         string `env:"WEBHOOK_SECRET"`
	Auth0Domain           string `env:"AUTH0_DOMAIN"`
	Auth0Audience         string `env:"AUTH0_AUDIENCE"`
}
