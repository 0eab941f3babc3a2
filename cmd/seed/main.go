package main

import (
	"context"
	"log"

	"github.com/lib/pq"

	"github.com/example/labourmarket/internal/config"
	"github.com/example/labourmarket/internal/database"
	"github.com/example/labourmarket/internal/models"
	"github.com/example/labourmarket/internal/repository"
)

var directory = []models.Labourer{
	{
		Name:            "Ramesh Kumar",
		Category:        "Plumber",
		Rating:          4.8,
		JobsCompleted:   154,
		HourlyRate:      250,
		Description:     "Expert plumber with over 10 years of experience in fixing leaks, pipe installation, and bathroom fittings. Reliable and quick service.",
		ImageURL:        "https://randomuser.me/api/portraits/men/32.jpg",
		Location:        "Andheri East, Mumbai",
		Skills:          pq.StringArray{"Pipe Fitting", "Leakage Repair", "Basin Installation"},
		ExperienceYears: 12,
	},
	{
		Name:            "Suresh Patel",
		Category:        "Electrician",
		Rating:          4.6,
		JobsCompleted:   98,
		HourlyRate:      300,
		Description:     "Certified electrician specializing in home wiring, switchboard repairs, and appliance installation. Safety is my priority.",
		ImageURL:        "https://randomuser.me/api/portraits/men/45.jpg",
		Location:        "Borivali, Mumbai",
		Skills:          pq.StringArray{"Wiring", "Switchboard Repair", "Fan Installation"},
		ExperienceYears: 8,
	},
	{
		Name:            "Anita Devi",
		Category:        "Cleaner",
		Rating:          4.9,
		JobsCompleted:   210,
		HourlyRate:      150,
		Description:     "Professional home cleaner offering deep cleaning services. Punctual and thorough work guaranteed.",
		ImageURL:        "https://randomuser.me/api/portraits/women/44.jpg",
		Location:        "Juhu, Mumbai",
		Skills:          pq.StringArray{"Deep Cleaning", "Kitchen Cleaning", "Floor Polishing"},
		ExperienceYears: 5,
	},
	{
		Name:            "Mohammad Khan",
		Category:        "Carpenter",
		Rating:          4.7,
		JobsCompleted:   130,
		HourlyRate:      350,
		Description:     "Skilled carpenter for furniture repair, custom cabinets, and door installation. Quality woodwork at affordable rates.",
		ImageURL:        "https://randomuser.me/api/portraits/men/22.jpg",
		Location:        "Bandra, Mumbai",
		Skills:          pq.StringArray{"Furniture Repair", "Door Installation", "Polishing"},
		ExperienceYears: 15,
	},
	{
		Name:            "Vikram Singh",
		Category:        "Painter",
		Rating:          4.5,
		JobsCompleted:   85,
		HourlyRate:      200,
		Description:     "House painter experienced in interior and exterior painting. Wall putty, texture painting, and clean finish.",
		ImageURL:        "https://randomuser.me/api/portraits/men/12.jpg",
		Location:        "Dadar, Mumbai",
		Skills:          pq.StringArray{"Wall Painting", "Texture Design", "Waterproofing"},
		ExperienceYears: 7,
	},
	{
		Name:            "Sunita Sharma",
		Category:        "Cook",
		Rating:          4.8,
		JobsCompleted:   300,
		HourlyRate:      400,
		Description:     "Experienced cook specializing in North Indian and Gujarati cuisine. Hygiene and taste are assured.",
		ImageURL:        "https://randomuser.me/api/portraits/women/68.jpg",
		Location:        "Ghatkopar, Mumbai",
		Skills:          pq.StringArray{"North Indian", "Gujarati", "Jain Food"},
		ExperienceYears: 10,
	},
}

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL, cfg.DBLogLevel)

	removed, err := repository.NewLabourerRepo(db).ReseedDirectory(context.Background(), directory)
	if err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	log.Printf("Removed %d directory entries, seeded %d", removed, len(directory))
}
