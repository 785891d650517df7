package main

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"storefront/pkg/domain/service"
)

const appID = "storefront"

func parseEnv() (*config, error) {
	c := new(config)
	if err := envconfig.Process(appID, c); err != nil {
		return nil, errors.Wrap(err, "failed to parse env")
	}
	return c, nil
}

type config struct {
	LogLevel string `envconfig:"log_level" default:"info"`

	HTTPAddress     string        `envconfig:"http_address" default:":8080"`
	GRPCAddress     string        `envconfig:"grpc_address" default:":8081"`
	ShutdownTimeout time.Duration `envconfig:"shutdown_timeout" default:"10s"`

	DBDriver string `envconfig:"db_driver" default:"sqlite"`
	DBDSN    string `envconfig:"db_dsn" default:"storefront.db"`

	// SessionStoragePath is the JSON file backing carts and checkout drafts. Empty keeps
	// them in memory only.
	SessionStoragePath string `envconfig:"session_storage_path" default:"sessions.json"`

	AMQPURL      string `envconfig:"amqp_url"`
	AMQPExchange string `envconfig:"amqp_exchange" default:"storefront.events"`

	GeneratorURL     string        `envconfig:"generator_url"`
	GeneratorAPIKey  string        `envconfig:"generator_api_key"`
	GeneratorTimeout time.Duration `envconfig:"generator_timeout" default:"20s"`

	PlacementDelay time.Duration `envconfig:"placement_delay" default:"1500ms"`
	FeedBuffer     int           `envconfig:"feed_buffer" default:"16"`
	NoticeLimit    int           `envconfig:"notice_limit" default:"20"`

	Pricing pricingConfig `envconfig:"pricing"`
}

type pricingConfig struct {
	FreeDeliveryThreshold decimal.Decimal `envconfig:"free_delivery_threshold" default:"500"`
	DeliveryCharge        decimal.Decimal `envconfig:"delivery_charge" default:"30"`
	ExpressSurcharge      decimal.Decimal `envconfig:"express_surcharge" default:"25"`
	HandlingCharge        decimal.Decimal `envconfig:"handling_charge" default:"5"`
	GSTRate               decimal.Decimal `envconfig:"gst_rate" default:"0.18"`
	Promos                promoTable      `envconfig:"promos" default:"SAVE10=flat:10,QUICK15=percent:15,FREEDEL=flat:30"`
}

func (p pricingConfig) rates() service.Rates {
	return service.Rates{
		FreeDeliveryThreshold: p.FreeDeliveryThreshold,
		DeliveryCharge:        p.DeliveryCharge,
		ExpressSurcharge:      p.ExpressSurcharge,
		HandlingCharge:        p.HandlingCharge,
		GSTRate:               p.GSTRate,
		Promos:                p.Promos,
	}
}

// promoTable decodes CODE=kind:value pairs separated by commas, kind being flat or percent.
type promoTable map[string]service.PromoRule

func (t *promoTable) Decode(value string) error {
	table := make(promoTable)
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		code, rule, ok := strings.Cut(entry, "=")
		if !ok {
			return errors.Errorf("promo %q: expected CODE=kind:value", entry)
		}
		kind, amount, ok := strings.Cut(rule, ":")
		if !ok {
			return errors.Errorf("promo %q: expected CODE=kind:value", entry)
		}

		parsed, err := decimal.NewFromString(strings.TrimSpace(amount))
		if err != nil || parsed.IsNegative() {
			return errors.Errorf("promo %q: invalid amount %q", entry, amount)
		}
		promo := service.PromoRule{Value: parsed}
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case "flat":
			promo.Kind = service.PromoFlat
		case "percent":
			if parsed.GreaterThan(decimal.NewFromInt(100)) {
				return errors.Errorf("promo %q: percentage above 100", entry)
			}
			promo.Kind = service.PromoPercent
		default:
			return errors.Errorf("promo %q: unknown kind %q", entry, kind)
		}
		table[service.NormalizePromoCode(code)] = promo
	}
	*t = table
	return nil
}
