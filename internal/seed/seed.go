// Package seed loads a fixed development dataset. Running it twice
// produces the same records: every table is cleared before inserting.
package seed

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hoarding-service/internal/model"
	"hoarding-service/internal/sequence"
	"hoarding-service/internal/upload"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Run wipes the database and inserts the development fixtures. The
// uploadDir receives placeholder image files so seeded paths resolve.
func Run(db *gorm.DB, uploadDir string, log *zap.Logger) error {
	if err := clear(db); err != nil {
		return fmt.Errorf("clearing tables: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing seed password: %w", err)
	}

	users, err := seedUsers(db, string(hash))
	if err != nil {
		return fmt.Errorf("seeding users: %w", err)
	}
	log.Info("Seeded users", zap.Int("count", 5))

	hoardings, err := seedHoardings(db, uploadDir, users)
	if err != nil {
		return fmt.Errorf("seeding hoardings: %w", err)
	}
	log.Info("Seeded hoardings", zap.Int("count", len(hoardings)))

	assignments, err := seedAssignments(db, users, hoardings)
	if err != nil {
		return fmt.Errorf("seeding assignments: %w", err)
	}
	log.Info("Seeded assignments", zap.Int("count", len(assignments)))

	if err := seedPhotos(db, uploadDir, users, assignments); err != nil {
		return fmt.Errorf("seeding photos: %w", err)
	}

	contracts, err := seedContracts(db, users, hoardings)
	if err != nil {
		return fmt.Errorf("seeding contracts: %w", err)
	}
	log.Info("Seeded contracts", zap.Int("count", len(contracts)))

	if err := seedBillings(db, contracts); err != nil {
		return fmt.Errorf("seeding billings: %w", err)
	}

	log.Info("Seed complete")
	return nil
}

func clear(db *gorm.DB) error {
	// Children before parents; no foreign key constraints are declared
	// but the order keeps the wipe sensible to read.
	tables := []interface{}{
		&model.Billing{},
		&model.Contract{},
		&model.Photo{},
		&model.Assignment{},
		&model.HoardingImage{},
		&model.Hoarding{},
		&model.PhotographerProfile{},
		&model.ClientProfile{},
		&model.User{},
		&model.SequenceCounter{},
	}
	for _, table := range tables {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}

// seeded fixture accounts, keyed by a stable handle used by the other
// seeders.
type userSet struct {
	Owner         model.User
	Client        model.User
	SecondClient  model.User
	Photographer  model.User
	SecondShooter model.User
}

func seedUsers(db *gorm.DB, passwordHash string) (*userSet, error) {
	set := &userSet{
		Owner: model.User{
			Name:     "Arun Mehta",
			Email:    "owner@hoarding.local",
			Password: passwordHash,
			Role:     model.RoleOwner,
			Phone:    "+91-98100-11001",
			Location: "Mumbai",
		},
		Client: model.User{
			Name:     "Priya Desai",
			Email:    "client@hoarding.local",
			Password: passwordHash,
			Role:     model.RoleClient,
			Phone:    "+91-98100-11002",
			Location: "Pune",
		},
		SecondClient: model.User{
			Name:     "Vikram Shah",
			Email:    "client2@hoarding.local",
			Password: passwordHash,
			Role:     model.RoleClient,
			Phone:    "+91-98100-11003",
			Location: "Ahmedabad",
		},
		Photographer: model.User{
			Name:     "Kavya Nair",
			Email:    "photographer@hoarding.local",
			Password: passwordHash,
			Role:     model.RolePhotographer,
			Phone:    "+91-98100-11004",
			Location: "Mumbai",
		},
		SecondShooter: model.User{
			Name:     "Rohit Kulkarni",
			Email:    "photographer2@hoarding.local",
			Password: passwordHash,
			Role:     model.RolePhotographer,
			Phone:    "+91-98100-11005",
			Location: "Nashik",
		},
	}

	users := []*model.User{&set.Owner, &set.Client, &set.SecondClient, &set.Photographer, &set.SecondShooter}
	for _, user := range users {
		if err := db.Create(user).Error; err != nil {
			return nil, err
		}
		switch user.Role {
		case model.RolePhotographer:
			profile := model.PhotographerProfile{
				UserID: user.ID,
				Status: model.ProfileActive,
				Bio:    "Outdoor media photographer covering " + user.Location + ".",
			}
			if err := db.Create(&profile).Error; err != nil {
				return nil, err
			}
		case model.RoleClient:
			profile := model.ClientProfile{
				UserID:        user.ID,
				ContactPerson: user.Name,
				Status:        model.ProfileActive,
			}
			if err := db.Create(&profile).Error; err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

func seedHoardings(db *gorm.DB, uploadDir string, users *userSet) ([]model.Hoarding, error) {
	year := time.Now().Year()

	specs := []model.Hoarding{
		{
			Name: "Western Express Gateway", Address: "Western Express Hwy, Bandra East",
			City: "Mumbai", State: "Maharashtra", Country: "India", ZipCode: "400051",
			Width: 40, Height: 20, SizeUnit: "ft", DailyRate: 4500, Status: model.HoardingActive,
		},
		{
			Name: "Marine Drive Corner", Address: "Netaji Subhash Chandra Bose Rd",
			City: "Mumbai", State: "Maharashtra", Country: "India", ZipCode: "400020",
			Width: 30, Height: 15, SizeUnit: "ft", DailyRate: 6000, Status: model.HoardingActive,
		},
		{
			Name: "FC Road Junction", Address: "Fergusson College Rd, Shivajinagar",
			City: "Pune", State: "Maharashtra", Country: "India", ZipCode: "411004",
			Width: 25, Height: 12, SizeUnit: "ft", DailyRate: 2800, Status: model.HoardingActive,
		},
		{
			Name: "Airport Approach Panel", Address: "Sahar Elevated Access Rd",
			City: "Mumbai", State: "Maharashtra", Country: "India", ZipCode: "400099",
			Width: 50, Height: 25, SizeUnit: "ft", DailyRate: 8200, Status: model.HoardingMaintenance,
		},
		{
			Name: "SG Highway Tower", Address: "Sarkhej-Gandhinagar Hwy, Bodakdev",
			City: "Ahmedabad", State: "Gujarat", Country: "India", ZipCode: "380054",
			Width: 35, Height: 18, SizeUnit: "ft", DailyRate: 3100, Status: model.HoardingInactive,
		},
	}

	hoardings := make([]model.Hoarding, 0, len(specs))
	for i, spec := range specs {
		number, err := sequence.Next(db, sequence.KindHoarding, year)
		if err != nil {
			return nil, err
		}
		spec.Number = number
		spec.OwnerID = users.Owner.ID
		if err := db.Create(&spec).Error; err != nil {
			return nil, err
		}

		path, err := placeholderImage(uploadDir, "hoardings", fmt.Sprintf("seed-hoarding-%d.png", i+1))
		if err != nil {
			return nil, err
		}
		img := model.HoardingImage{HoardingID: spec.ID, Position: 0, Path: path}
		if err := db.Create(&img).Error; err != nil {
			return nil, err
		}
		spec.Images = []model.HoardingImage{img}
		hoardings = append(hoardings, spec)
	}
	return hoardings, nil
}

func seedAssignments(db *gorm.DB, users *userSet, hoardings []model.Hoarding) ([]model.Assignment, error) {
	now := time.Now()
	specs := []model.Assignment{
		{HoardingID: hoardings[0].ID, PhotographerID: users.Photographer.ID, DueDate: now.AddDate(0, 0, -14), Status: model.AssignmentCompleted, Notes: "Monthly proof shot."},
		{HoardingID: hoardings[1].ID, PhotographerID: users.Photographer.ID, DueDate: now.AddDate(0, 0, 3), Status: model.AssignmentInProgress, Notes: "Shoot after the new creative goes up."},
		{HoardingID: hoardings[2].ID, PhotographerID: users.SecondShooter.ID, DueDate: now.AddDate(0, 0, 7), Status: model.AssignmentAssigned},
		{HoardingID: hoardings[3].ID, PhotographerID: users.SecondShooter.ID, DueDate: now.AddDate(0, 0, -30), Status: model.AssignmentCancelled, Notes: "Structure under maintenance."},
		{HoardingID: hoardings[4].ID, PhotographerID: users.Photographer.ID, DueDate: now.AddDate(0, 0, 10), Status: model.AssignmentAssigned},
	}

	assignments := make([]model.Assignment, 0, len(specs))
	for _, spec := range specs {
		spec.AssignedByID = users.Owner.ID
		if err := db.Create(&spec).Error; err != nil {
			return nil, err
		}
		if spec.Status == model.AssignmentAssigned || spec.Status == model.AssignmentInProgress {
			if err := db.Model(&model.PhotographerProfile{}).
				Where("user_id = ?", spec.PhotographerID).
				UpdateColumn("assigned_hoardings", gorm.Expr("assigned_hoardings + 1")).Error; err != nil {
				return nil, err
			}
		}
		assignments = append(assignments, spec)
	}
	return assignments, nil
}

func seedPhotos(db *gorm.DB, uploadDir string, users *userSet, assignments []model.Assignment) error {
	now := time.Now()
	count := 0
	for i := range assignments {
		a := &assignments[i]
		if a.Status != model.AssignmentCompleted && a.Status != model.AssignmentInProgress {
			continue
		}
		count++
		path, err := placeholderImage(uploadDir, "photos", fmt.Sprintf("seed-photo-%d.png", count))
		if err != nil {
			return err
		}

		status := model.PhotoApproved
		if a.Status == model.AssignmentInProgress {
			status = model.PhotoPending
		}
		photo := model.Photo{
			Path:         path,
			Caption:      "Site condition capture",
			CapturedAt:   now.AddDate(0, 0, -count),
			SizeBytes:    1024,
			Width:        64,
			Height:       48,
			Format:       "png",
			Status:       status,
			HoardingID:   a.HoardingID,
			UploaderID:   a.PhotographerID,
			AssignmentID: &a.ID,
		}
		if err := db.Create(&photo).Error; err != nil {
			return err
		}
		if err := db.Model(&model.PhotographerProfile{}).
			Where("user_id = ?", a.PhotographerID).
			UpdateColumn("photos_uploaded", gorm.Expr("photos_uploaded + 1")).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedContracts(db *gorm.DB, users *userSet, hoardings []model.Hoarding) ([]model.Contract, error) {
	now := time.Now()
	year := now.Year()

	specs := []model.Contract{
		{
			HoardingID: hoardings[0].ID, ClientID: users.Client.ID,
			StartDate: now.AddDate(0, -2, 0), EndDate: now.AddDate(0, 4, 0),
			TotalAmount: 810000, Status: model.ContractActive,
			Terms: "Six month placement, creative swap every eight weeks.",
		},
		{
			HoardingID: hoardings[1].ID, ClientID: users.Client.ID,
			StartDate: now.AddDate(0, 0, 15), EndDate: now.AddDate(0, 3, 15),
			TotalAmount: 540000, Status: model.ContractPending,
			Terms: "Quarterly placement pending artwork approval.",
		},
		{
			HoardingID: hoardings[2].ID, ClientID: users.SecondClient.ID,
			StartDate: now.AddDate(0, -7, 0), EndDate: now.AddDate(0, -1, 0),
			TotalAmount: 504000, Status: model.ContractCompleted,
		},
	}

	contracts := make([]model.Contract, 0, len(specs))
	for _, spec := range specs {
		number, err := sequence.Next(db, sequence.KindContract, year)
		if err != nil {
			return nil, err
		}
		spec.Number = number
		spec.OwnerID = users.Owner.ID
		if err := db.Create(&spec).Error; err != nil {
			return nil, err
		}
		if err := db.Model(&model.ClientProfile{}).
			Where("user_id = ?", spec.ClientID).
			UpdateColumn("contracts_count", gorm.Expr("contracts_count + 1")).Error; err != nil {
			return nil, err
		}
		contracts = append(contracts, spec)
	}
	return contracts, nil
}

func seedBillings(db *gorm.DB, contracts []model.Contract) error {
	now := time.Now()
	year := now.Year()
	paidAt := now.AddDate(0, -1, 0)

	specs := []model.Billing{
		{
			ContractID: contracts[0].ID, Amount: 135000,
			PaymentStatus: model.PaymentPaid, DueDate: now.AddDate(0, -1, 5),
			PaymentDate: &paidAt, PaymentMethod: "bank_transfer", TransactionID: "TXN-74201",
		},
		{
			ContractID: contracts[0].ID, Amount: 135000,
			PaymentStatus: model.PaymentPending, DueDate: now.AddDate(0, 0, 5),
		},
		{
			ContractID: contracts[1].ID, Amount: 180000,
			PaymentStatus: model.PaymentPending, DueDate: now.AddDate(0, 0, 20),
		},
		{
			ContractID: contracts[2].ID, Amount: 84000,
			PaymentStatus: model.PaymentOverdue, DueDate: now.AddDate(0, -2, 0),
		},
	}

	for _, spec := range specs {
		number, err := sequence.Next(db, sequence.KindInvoice, year)
		if err != nil {
			return err
		}
		spec.InvoiceNumber = number
		for _, contract := range contracts {
			if contract.ID == spec.ContractID {
				spec.ClientID = contract.ClientID
				spec.OwnerID = contract.OwnerID
			}
		}
		if err := db.Create(&spec).Error; err != nil {
			return err
		}
	}
	return nil
}

// placeholderImage writes a tiny PNG into the upload tree and returns
// its web path, matching what the upload package produces.
func placeholderImage(uploadDir, entity, name string) (string, error) {
	dir := filepath.Join(uploadDir, entity)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 230, G: 230, B: 230, A: 255})
		}
	}

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return "", err
	}
	return upload.WebPrefix + "/" + entity + "/" + name, nil
}
