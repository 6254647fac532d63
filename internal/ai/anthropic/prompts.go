package anthropic

// billExtractionPrompt instructs the model to read a Malaysian utility
// bill and return its fields as strict JSON.
const billExtractionPrompt = `You are reading a Malaysian utility bill (electricity, water, natural gas, or vehicle fuel receipt). Extract the billing details.

Utility types and their units:
- "electricity": consumption in kWh (providers include TNB, SESB, Sarawak Energy)
- "water": consumption in m3 (providers include Air Selangor, PBAPP, SAJ)
- "natural_gas": consumption in m3 (Gas Malaysia)
- "fuel": volume in litres (petrol or diesel receipts)

Rules:
- Amounts are in Malaysian Ringgit (MYR). Ignore sen rounding adjustments.
- The billing period is usually labelled "Tempoh Bil" or "Billing Period". Use ISO dates (YYYY-MM-DD).
- For fuel receipts with no billing period, use the receipt date for both period_start and period_end plus one day.
- If the document is not a utility bill or is too blurry to read, set "readable" to false and explain in "notes".
- Grade your confidence: "high" (all key fields clearly printed), "medium" (some fields inferred), "low" (significant guessing).

Return ONLY a JSON object with this exact structure, no additional text:

{
  "readable": true,
  "utility_type": "electricity|water|natural_gas|fuel",
  "provider": "Provider name as printed",
  "period_start": "YYYY-MM-DD",
  "period_end": "YYYY-MM-DD",
  "consumption": 0.0,
  "unit": "kWh|m3|litre",
  "amount_myr": 0.0,
  "confidence": "high|medium|low",
  "notes": "Anything unusual about the bill"
}`
