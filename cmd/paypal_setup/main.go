package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/service"
	"jeezy-monetization-be/pkg/paypal"
	"jeezy-monetization-be/pkg/pricing"

	"github.com/joho/godotenv"
)

// billingFrequency maps a VIP plan to the provider's billing cycle.
func billingFrequency(plan entity.PlanType) paypal.Frequency {
	switch plan {
	case entity.PlanQuarterly:
		return paypal.Frequency{IntervalUnit: "MONTH", IntervalCount: 3}
	case entity.PlanAnnual:
		return paypal.Frequency{IntervalUnit: "YEAR", IntervalCount: 1}
	default:
		return paypal.Frequency{IntervalUnit: "MONTH", IntervalCount: 1}
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	clientID, clientSecret := os.Getenv("PAYPAL_CLIENT_ID"), os.Getenv("PAYPAL_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		log.Fatal("Error: PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET must be set")
	}
	baseURL := os.Getenv("PAYPAL_API_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api-m.sandbox.paypal.com"
	}

	client := paypal.NewClient(paypal.Config{
		BaseURL:      baseURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Timeout:      15 * time.Second,
	})
	classifier := service.NewPaymentVerificationService(nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// 1. Catalogue product
	product, err := client.CreateProduct(ctx, paypal.Product{
		Name:        "Jeezy VIP",
		Description: "Jeezy VIP membership",
		Type:        "SERVICE",
		Category:    "SOFTWARE",
	})
	if err != nil {
		log.Fatalf("Error: Failed to create product: %v", err)
	}
	log.Printf("Created product %s", product.ID)
	fmt.Printf("PAYPAL_PRODUCT_ID=%s\n", product.ID)

	// 2. One billing plan per VIP price
	for _, price := range pricing.DefaultCatalog().Products() {
		class := classifier.ClassifyProduct(price.ProductID)
		if class.Type != entity.ProductTypeVip {
			continue
		}

		plan, err := client.CreatePlan(ctx, paypal.CreatePlanRequest{
			ProductID: product.ID,
			Name:      price.Label,
			Status:    "ACTIVE",
			BillingCycles: []paypal.BillingCycle{{
				Frequency:   billingFrequency(class.Plan),
				TenureType:  "REGULAR",
				Sequence:    1,
				TotalCycles: 0,
				PricingScheme: paypal.PricingScheme{
					FixedPrice: paypal.Money{CurrencyCode: price.Currency, Value: price.Amount.StringFixed(2)},
				},
			}},
			PaymentPreferences: &paypal.PaymentPreferences{
				AutoBillOutstanding:     true,
				PaymentFailureThreshold: 3,
			},
		})
		if err != nil {
			log.Fatalf("Error: Failed to create plan for %s: %v", price.ProductID, err)
		}
		fmt.Printf("PAYPAL_PLAN_%s=%s\n", strings.ToUpper(string(class.Plan)), plan.ID)
	}
}
