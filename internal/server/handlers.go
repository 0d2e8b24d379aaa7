package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/Veraticus/the-stock-must-flow/internal/common"
	"github.com/Veraticus/the-stock-must-flow/internal/inventory"
	"github.com/Veraticus/the-stock-must-flow/internal/model"
	"github.com/Veraticus/the-stock-must-flow/internal/service"
	"github.com/gofiber/fiber/v2"
)

type handler struct {
	inv       Inventory
	assistant service.Assistant
	logger    *slog.Logger
}

// home renders a short HTML status page with one line per SKU.
// GET /
func (h *handler) home(c *fiber.Ctx) error {
	lines, err := h.inv.Summary(c.UserContext())
	if err != nil {
		return err
	}

	summary := "No SKUs uploaded yet."
	if len(lines) > 0 {
		escaped := make([]string, len(lines))
		for i, l := range lines {
			escaped[i] = html.EscapeString(l)
		}
		summary = strings.Join(escaped, "<br>")
	}

	c.Type("html")
	return c.SendString(fmt.Sprintf("<h2>Inventory Restock Predictor Backend Running!</h2><p>%s</p>", summary))
}

// GET /health
func (h *handler) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// uploadSales appends the records of a multipart "file" upload.
// POST /upload-sales
func (h *handler) uploadSales(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file uploaded"})
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := h.inv.IngestFile(c.UserContext(), fh.Filename, f)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "Sales uploaded", "rows": rows})
}

// GET /items
func (h *handler) listItems(c *fiber.Ctx) error {
	items, err := h.inv.ListItems(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": items})
}

type predictRequest struct {
	Horizon      *int                  `json:"horizon"`
	CurrentStock *float64              `json:"current_stock"`
	SKU          string                `json:"sku"`
	Algorithm    string                `json:"algorithm"`
	Params       model.AlgorithmParams `json:"params"`
}

// POST /predict
func (h *handler) predict(c *fiber.Ctx) error {
	var body predictRequest
	if err := decodeJSON(c.Body(), &body, false); err != nil {
		return err
	}

	result, err := h.inv.Predict(c.UserContext(), inventory.PredictRequest{
		SKU:          body.SKU,
		Algorithm:    body.Algorithm,
		Horizon:      body.Horizon,
		CurrentStock: body.CurrentStock,
		Params:       body.Params,
	})
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// POST /notify
func (h *handler) notify(c *fiber.Ctx) error {
	var body struct {
		Emails []string `json:"emails"`
	}
	if err := decodeJSON(c.Body(), &body, true); err != nil {
		return err
	}

	result, err := h.inv.NotifyScan(c.UserContext(), body.Emails)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// GET /download-sku/:sku
func (h *handler) downloadSKU(c *fiber.Ctx) error {
	sku := c.Params("sku")
	data, err := h.inv.Export(c.UserContext(), sku)
	if err != nil {
		return err
	}

	c.Attachment(inventory.ExportFilename(sku))
	return c.Send(data)
}

// POST /ask
func (h *handler) ask(c *fiber.Ctx) error {
	var body struct {
		Question string `json:"question"`
	}
	if err := decodeJSON(c.Body(), &body, false); err != nil {
		return err
	}
	if h.assistant == nil {
		return fmt.Errorf("%w: language model is not configured", common.ErrNotConfigured)
	}

	answer, err := h.assistant.Ask(c.UserContext(), body.Question)
	if err != nil {
		if errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrNotConfigured) {
			return err
		}
		h.logger.Error("Assistant request failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Language model request failed"})
	}

	return c.JSON(fiber.Map{"answer": answer})
}

// decodeJSON unmarshals a request body. An empty body is accepted only when
// allowEmpty is set.
func decodeJSON(body []byte, v any, allowEmpty bool) error {
	if len(bytes.TrimSpace(body)) == 0 {
		if allowEmpty {
			return nil
		}
		return common.Validationf("Invalid request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return common.Validationf("Invalid request body: %v", err)
	}
	return nil
}
